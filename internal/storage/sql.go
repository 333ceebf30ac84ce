package storage

import (
	_ "embed"
)

//go:embed schema.sql
var initSchemaSQL string

const initIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_ticks_session_tick ON ticks (session_id, tick);
CREATE INDEX IF NOT EXISTS idx_mode_changes_session_tick ON mode_changes (session_id, tick);`

const (
	insertSessionSQL = `
INSERT INTO sessions (start_time,
                      name,
                      scenario,
                      dt,
                      max_motor_force,
                      config)
VALUES (CURRENT_TIMESTAMP, ?, ?, ?, ?, ?)`

	selectSessionSQL = `
SELECT id,
       start_time,
       name,
       scenario,
       dt,
       max_motor_force,
       config
FROM sessions
WHERE id = ?`

	selectSessionsSQL = `
SELECT id,
       start_time,
       name,
       scenario,
       dt,
       max_motor_force,
       config
FROM sessions
ORDER BY start_time, id`

	insertTicksSQL = `
INSERT INTO ticks (session_id,
                   tick,
                   elapsed,
                   mode,
                   cyclic_x,
                   cyclic_y,
                   yaw,
                   throttle,
                   mode_switch,
                   rotation_x,
                   rotation_y,
                   rotation_z,
                   angular_x,
                   angular_y,
                   angular_z,
                   velocity_x,
                   velocity_y,
                   velocity_z,
                   vertical_velocity,
                   target_rate_x,
                   target_rate_y,
                   target_rate_z,
                   target_throttle,
                   correction_x,
                   correction_y,
                   correction_z,
                   collective,
                   force_fl,
                   force_fr,
                   force_bl,
                   force_br,
                   saturated)
VALUES `

	insertModeChangeSQL = `
INSERT INTO mode_changes (session_id,
                          tick,
                          elapsed,
                          mode,
                          previous)
VALUES (?, ?, ?, ?, ?)`

	selectModeChangesSQL = `
SELECT tick,
       elapsed,
       mode,
       previous
FROM mode_changes
WHERE session_id = ?
ORDER BY tick`

	selectTickRangeSQL = `
SELECT COALESCE(MIN(tick), 0),
       COALESCE(MAX(tick), -1),
       COUNT(*)
FROM ticks
WHERE session_id = ?`

	selectTicksSQL = `
SELECT tick,
       elapsed,
       mode,
       cyclic_x,
       cyclic_y,
       yaw,
       throttle,
       mode_switch,
       rotation_x,
       rotation_y,
       rotation_z,
       angular_x,
       angular_y,
       angular_z,
       velocity_x,
       velocity_y,
       velocity_z,
       vertical_velocity,
       target_rate_x,
       target_rate_y,
       target_rate_z,
       target_throttle,
       correction_x,
       correction_y,
       correction_z,
       collective,
       force_fl,
       force_fr,
       force_bl,
       force_br,
       saturated
FROM ticks
WHERE session_id = ?
  AND tick >= ?
  AND tick <= ?
  AND (? = '' OR mode = ?)
ORDER BY tick
LIMIT ?`
)

// tickColumns is the number of values bound per row of insertTicksSQL.
const tickColumns = 32
