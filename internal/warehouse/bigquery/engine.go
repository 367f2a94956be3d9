// Package bigquery runs warehouse queries as BigQuery jobs.
package bigquery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	bq "cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/pickuplens/pickuplens/internal/warehouse"
)

type Config struct {
	ProjectID       string
	Location        string
	CredentialsFile string
	// QueryTimeout bounds a single job; zero waits until the job finishes.
	QueryTimeout time.Duration
}

type rowIterator interface {
	Next(dst interface{}) error
	schema() bq.Schema
}

type client interface {
	run(ctx context.Context, sql string) (rowIterator, error)
	close() error
}

type Engine struct {
	client  client
	timeout time.Duration
}

func New(ctx context.Context, cfg Config) (*Engine, error) {
	projectID := strings.TrimSpace(cfg.ProjectID)
	if projectID == "" {
		return nil, fmt.Errorf("bigquery project id is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	c, err := bq.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bigquery client: %w", err)
	}
	if cfg.Location != "" {
		c.Location = cfg.Location
	}
	return &Engine{client: &jobClient{client: c}, timeout: cfg.QueryTimeout}, nil
}

func newWithClient(c client, timeout time.Duration) *Engine {
	return &Engine{client: c, timeout: timeout}
}

func (e *Engine) Name() string {
	return "bigquery"
}

// Query submits sql as a job and blocks until the job completes and every
// result page has been read.
func (e *Engine) Query(ctx context.Context, sql string) (warehouse.Table, error) {
	if strings.TrimSpace(sql) == "" {
		return warehouse.Table{}, fmt.Errorf("sql is required")
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	it, err := e.client.run(ctx, sql)
	if err != nil {
		return warehouse.Table{}, err
	}

	rows := make([][]any, 0)
	for {
		var values []bq.Value
		err := it.Next(&values)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return warehouse.Table{}, fmt.Errorf("read bigquery rows: %w", err)
		}
		row := make([]any, len(values))
		for i, value := range values {
			row[i] = value
		}
		rows = append(rows, row)
	}

	return warehouse.Table{
		Columns:  columnsFromSchema(it.schema()),
		Rows:     rows,
		Duration: time.Since(start),
	}, nil
}

func (e *Engine) Close() error {
	return e.client.close()
}

func columnsFromSchema(schema bq.Schema) []warehouse.Column {
	columns := make([]warehouse.Column, len(schema))
	for i, field := range schema {
		columns[i] = warehouse.Column{
			Name:     field.Name,
			Type:     columnType(field),
			Nullable: !field.Required,
		}
	}
	return columns
}

func columnType(field *bq.FieldSchema) warehouse.ColumnType {
	if field.Repeated {
		return warehouse.TypeOther
	}
	switch field.Type {
	case bq.StringFieldType:
		return warehouse.TypeString
	case bq.BytesFieldType:
		return warehouse.TypeBytes
	case bq.IntegerFieldType:
		return warehouse.TypeInt64
	case bq.FloatFieldType:
		return warehouse.TypeFloat64
	case bq.NumericFieldType, bq.BigNumericFieldType:
		return warehouse.TypeNumeric
	case bq.BooleanFieldType:
		return warehouse.TypeBool
	case bq.TimestampFieldType:
		return warehouse.TypeTimestamp
	case bq.DateTimeFieldType:
		return warehouse.TypeDateTime
	case bq.DateFieldType:
		return warehouse.TypeDate
	case bq.TimeFieldType:
		return warehouse.TypeTime
	case bq.GeographyFieldType:
		return warehouse.TypeGeography
	default:
		return warehouse.TypeOther
	}
}

type jobClient struct {
	client *bq.Client
}

func (c *jobClient) run(ctx context.Context, sql string) (rowIterator, error) {
	job, err := c.client.Query(sql).Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("start bigquery job: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("wait for bigquery job %s: %w", job.ID(), err)
	}
	if err := status.Err(); err != nil {
		return nil, fmt.Errorf("bigquery job %s failed: %w", job.ID(), err)
	}
	it, err := job.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("read bigquery job %s: %w", job.ID(), err)
	}
	return jobRows{RowIterator: it}, nil
}

func (c *jobClient) close() error {
	return c.client.Close()
}

type jobRows struct {
	*bq.RowIterator
}

// schema is only populated once Next has been called.
func (r jobRows) schema() bq.Schema {
	return r.RowIterator.Schema
}
