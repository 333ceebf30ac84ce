package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roman-kulish/flight-control/internal/mixer"
	"github.com/roman-kulish/flight-control/internal/telemetry"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && *err == nil && !errors.Is(cErr, sql.ErrTxDone) {
		*err = cErr
	}
}

func toConfigData(config any) (configData sql.NullString, err error) {
	switch v := config.(type) {
	case nil:
	case string:
		configData.Valid = true
		configData.String = v

	case []byte:
		configData.Valid = true
		configData.String = string(v)

	default:
		var p []byte
		if p, err = json.Marshal(config); err != nil {
			return configData, fmt.Errorf("marshaling config: %w", err)
		}

		configData.Valid = true
		configData.String = string(p)
	}
	return
}

func scanSession(row interface{ Scan(...any) error }) (*Session, error) {
	var sess Session
	var config sql.NullString
	if err := row.Scan(
		&sess.ID,
		&sess.StartTime,
		&sess.Name,
		&sess.Scenario,
		&sess.DT,
		&sess.MaxMotorForce,
		&config,
	); err != nil {
		return nil, err
	}
	if config.Valid {
		sess.Config = &config.String
	}
	return &sess, nil
}

// valuesPlaceholders returns "(?, ?, ...), (?, ?, ...)" for rows of n columns.
func valuesPlaceholders(rows, n int) string {
	row := "(" + strings.TrimSuffix(strings.Repeat("?, ", n), ", ") + ")"

	var sb strings.Builder
	for i := 0; i < rows; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(row)
	}
	return sb.String()
}

func appendTickValues(values []any, sessionID int64, r *telemetry.Record) []any {
	return append(values,
		sessionID,
		r.Tick,
		int64(r.Elapsed),
		r.Mode,
		r.Input.Cyclic.X,
		r.Input.Cyclic.Y,
		r.Input.Yaw,
		r.Input.Throttle,
		r.Input.ModeSwitch,
		r.State.Rotation.X,
		r.State.Rotation.Y,
		r.State.Rotation.Z,
		r.State.AngularVelocity.X,
		r.State.AngularVelocity.Y,
		r.State.AngularVelocity.Z,
		r.State.Velocity.X,
		r.State.Velocity.Y,
		r.State.Velocity.Z,
		r.State.VerticalVelocity,
		r.TargetRate.X,
		r.TargetRate.Y,
		r.TargetRate.Z,
		r.Throttle,
		r.Correction.X,
		r.Correction.Y,
		r.Correction.Z,
		r.Collective,
		r.Forces[mixer.FrontLeft],
		r.Forces[mixer.FrontRight],
		r.Forces[mixer.BackLeft],
		r.Forces[mixer.BackRight],
		int64(r.Saturated),
	)
}

// scanTick reads one row of selectTicksSQL. Load is derived from the forces
// and the session's maximum motor force.
func scanTick(rows *sql.Rows, maxMotorForce float64) (*telemetry.Record, error) {
	var r telemetry.Record
	var elapsed, saturated int64

	err := rows.Scan(
		&r.Tick,
		&elapsed,
		&r.Mode,
		&r.Input.Cyclic.X,
		&r.Input.Cyclic.Y,
		&r.Input.Yaw,
		&r.Input.Throttle,
		&r.Input.ModeSwitch,
		&r.State.Rotation.X,
		&r.State.Rotation.Y,
		&r.State.Rotation.Z,
		&r.State.AngularVelocity.X,
		&r.State.AngularVelocity.Y,
		&r.State.AngularVelocity.Z,
		&r.State.Velocity.X,
		&r.State.Velocity.Y,
		&r.State.Velocity.Z,
		&r.State.VerticalVelocity,
		&r.TargetRate.X,
		&r.TargetRate.Y,
		&r.TargetRate.Z,
		&r.Throttle,
		&r.Correction.X,
		&r.Correction.Y,
		&r.Correction.Z,
		&r.Collective,
		&r.Forces[mixer.FrontLeft],
		&r.Forces[mixer.FrontRight],
		&r.Forces[mixer.BackLeft],
		&r.Forces[mixer.BackRight],
		&saturated,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning tick: %w", err)
	}

	r.Elapsed = time.Duration(elapsed)
	r.Saturated = mixer.Saturation(saturated)
	r.Load = r.Forces.Load(maxMotorForce)
	return &r, nil
}
