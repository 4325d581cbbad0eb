package agent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seastacklabs/askd/internal/dbschema"
	"github.com/seastacklabs/askd/internal/llm"
	"github.com/seastacklabs/askd/internal/logging"
	"github.com/seastacklabs/askd/internal/sqlguard"
)

const databaseAgentName = "database"

// noQueryMarker is what the model replies when the question cannot be
// answered from the schema.
const noQueryMarker = "NO_QUERY"

const sqlSystemPromptFmt = `You translate questions into SQL for the schema below. Produce exactly ONE read-only SELECT statement and nothing else: no explanation, no markdown fences.

If the question cannot be answered from this schema, reply with exactly: NO_QUERY

Schema:
%s`

// DatabaseConfig holds database agent configuration.
type DatabaseConfig struct {
	Driver       string        `koanf:"driver"`
	DSN          string        `koanf:"dsn"`
	MaxRows      int           `koanf:"max_rows"`
	QueryTimeout time.Duration `koanf:"query_timeout"`

	// ZeroRowsAsAnswer controls whether a query returning zero rows is
	// reported as a valid "no matching data" answer (true) or as NotFound
	// (false, the default).
	ZeroRowsAsAnswer bool `koanf:"zero_rows_as_answer"`
}

// ApplyDefaults fills unset fields.
func (c *DatabaseConfig) ApplyDefaults() {
	if c.MaxRows <= 0 {
		c.MaxRows = 100
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = 10 * time.Second
	}
}

// Executor runs a validated read-only statement with a bounded row count.
// Only statements that passed sqlguard validation may ever reach it.
type Executor interface {
	Query(ctx context.Context, stmt string, maxRows int) (columns []string, rows [][]string, err error)
}

// DatabaseAgent converts a question into a validated SELECT against a known
// schema, executes it, and formats the rows as a text table.
type DatabaseAgent struct {
	schema dbschema.Descriptor
	llm    llm.Client
	exec   Executor
	cfg    DatabaseConfig
	logger *logging.Logger
}

// NewDatabaseAgent creates the database agent. The schema descriptor is
// captured at construction and treated as immutable.
func NewDatabaseAgent(schema dbschema.Descriptor, client llm.Client, exec Executor, cfg DatabaseConfig, logger *logging.Logger) *DatabaseAgent {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = logging.NewNop()
	}
	return &DatabaseAgent{
		schema: schema,
		llm:    client,
		exec:   exec,
		cfg:    cfg,
		logger: logger.Named(databaseAgentName),
	}
}

// Name implements Agent.
func (a *DatabaseAgent) Name() string { return databaseAgentName }

// Attempt implements Agent. A statement that fails read-only validation is
// returned as an error wrapping sqlguard.ErrSecurityRejected and is never
// executed.
func (a *DatabaseAgent) Attempt(ctx context.Context, question string) (Answer, error) {
	if a.schema.Empty() {
		return NotFound(databaseAgentName), nil
	}

	raw, err := a.llm.Generate(ctx, fmt.Sprintf(sqlSystemPromptFmt, a.schema.Prompt()), question)
	if err != nil {
		return NotFound(databaseAgentName), fmt.Errorf("generating sql: %w", err)
	}
	normalized := sqlguard.Normalize(raw)
	if normalized == "" || strings.EqualFold(normalized, noQueryMarker) {
		a.logger.Debug(ctx, "model declined to produce sql")
		return NotFound(databaseAgentName), nil
	}
	if !sqlguard.LooksLikeSQL(normalized) {
		// A prose refusal is a decline, not a security incident.
		a.logger.Debug(ctx, "model replied with prose instead of sql")
		return NotFound(databaseAgentName), nil
	}

	stmt, err := sqlguard.Validate(raw)
	if err != nil {
		// Fails closed. The orchestrator logs this and degrades to NotFound;
		// the statement never reaches the executor.
		return NotFound(databaseAgentName), err
	}

	queryCtx, cancel := context.WithTimeout(ctx, a.cfg.QueryTimeout)
	defer cancel()
	columns, rows, err := a.exec.Query(queryCtx, stmt, a.cfg.MaxRows)
	if err != nil {
		return NotFound(databaseAgentName), fmt.Errorf("executing query: %w", err)
	}

	a.logger.Debug(ctx, "query executed",
		zap.Int("rows", len(rows)), zap.Int("columns", len(columns)))

	if len(rows) == 0 {
		if a.cfg.ZeroRowsAsAnswer {
			return Answer{
				Text:      "The query executed successfully but matched no data.",
				Found:     true,
				AgentName: databaseAgentName,
			}, nil
		}
		return NotFound(databaseAgentName), nil
	}

	return Answer{
		Text:      formatTable(columns, rows),
		Found:     true,
		AgentName: databaseAgentName,
	}, nil
}

// formatTable renders rows as a pipe-separated text table.
func formatTable(columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d result(s):\n\n", len(rows))
	header := strings.Join(columns, " | ")
	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("-", len(header)) + "\n")
	for _, row := range rows {
		b.WriteString(strings.Join(row, " | ") + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// SQLExecutor implements Executor over database/sql.
type SQLExecutor struct {
	db *sql.DB
}

// NewSQLExecutor wraps an open database handle.
func NewSQLExecutor(db *sql.DB) *SQLExecutor {
	return &SQLExecutor{db: db}
}

// Query implements Executor. Rows beyond maxRows are discarded.
func (e *SQLExecutor) Query(ctx context.Context, stmt string, maxRows int) ([]string, [][]string, error) {
	if stmt == "" {
		return nil, nil, errors.New("empty statement")
	}
	rows, err := e.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]string
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() && len(out) < maxRows {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(columns))
		for i, v := range values {
			row[i] = renderValue(v)
		}
		out = append(out, row)
	}
	return columns, out, rows.Err()
}

func renderValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}
