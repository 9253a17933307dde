package history

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/CogniPilot/joy-test-mixer-actuators/internal/domain"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/ports"
)

// TimescaleSink writes command history into a TimescaleDB/Postgres table:
//
//	CREATE TABLE actuator_commands (
//	  session_id uuid, ts timestamptz, seq bigint, frame_id text,
//	  velocity double precision[], PRIMARY KEY (session_id, seq));
//
// Commands journaled by an earlier run keep their own session_id; sessionID is
// the fallback for commands written without one.
type TimescaleSink struct {
	db        *sql.DB
	tableName string
	sessionID string
}

func NewTimescaleSink(db *sql.DB, table, sessionID string) *TimescaleSink {
	return &TimescaleSink{db: db, tableName: table, sessionID: sessionID}
}

func (t *TimescaleSink) Name() string { return "timescaledb" }

func (t *TimescaleSink) WriteBatch(cmds []*domain.ActuatorCommand) error {
	if len(cmds) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(pq.QuoteIdentifier(t.tableName))
	b.WriteString(" (session_id, ts, seq, frame_id, velocity) VALUES ")

	args := make([]any, 0, len(cmds)*5)
	for i, c := range cmds {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "($%d,$%d,$%d,$%d,$%d)",
			len(args)+1, len(args)+2, len(args)+3, len(args)+4, len(args)+5)

		session := c.SessionID
		if session == "" {
			session = t.sessionID
		}
		args = append(args,
			session,
			c.Header.Stamp,
			int64(c.Seq),
			c.Header.FrameID,
			pq.Array(c.Velocity),
		)
	}

	// replays after a crash re-send committed-but-unacked rows
	b.WriteString(" ON CONFLICT (session_id, seq) DO NOTHING")

	_, err := t.db.Exec(b.String(), args...)
	return err
}

var _ ports.BatchSink = (*TimescaleSink)(nil)
