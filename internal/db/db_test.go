package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// fakeDriver counts transaction outcomes and can fail the first N
// commits with a given Postgres error code.
type fakeDriver struct {
	commits     int64
	rollbacks   int64
	failCommits int64
	failCode    pq.ErrorCode
}

func (d *fakeDriver) Open(string) (driver.Conn, error) {
	return &fakeConn{driver: d}, nil
}

type fakeConn struct {
	driver *fakeDriver
}

func (c *fakeConn) Prepare(string) (driver.Stmt, error) {
	return fakeStmt{}, nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) Begin() (driver.Tx, error) {
	return &fakeTx{driver: c.driver}, nil
}

func (c *fakeConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	return &fakeTx{driver: c.driver}, nil
}

type fakeTx struct {
	driver *fakeDriver
}

func (t *fakeTx) Commit() error {
	n := atomic.AddInt64(&t.driver.commits, 1)
	if n <= t.driver.failCommits {
		return &pq.Error{Code: t.driver.failCode}
	}
	return nil
}

func (t *fakeTx) Rollback() error {
	atomic.AddInt64(&t.driver.rollbacks, 1)
	return nil
}

type fakeStmt struct{}

func (fakeStmt) Close() error                               { return nil }
func (fakeStmt) NumInput() int                              { return -1 }
func (fakeStmt) Exec([]driver.Value) (driver.Result, error) { return nil, nil }
func (fakeStmt) Query([]driver.Value) (driver.Rows, error)  { return nil, nil }

var fakeDriverCounter uint64

func openFakeDB(t *testing.T, d *fakeDriver) *sqlx.DB {
	t.Helper()
	name := fmt.Sprintf("skillex-fake-%d", atomic.AddUint64(&fakeDriverCounter, 1))
	sql.Register(name, d)
	sqlDB, err := sql.Open(name, "")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return sqlx.NewDb(sqlDB, name)
}

func TestWithTxCommits(t *testing.T) {
	d := &fakeDriver{}
	conn := openFakeDB(t, d)
	if err := WithTx(context.Background(), conn, func(*sqlx.Tx) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.commits != 1 || d.rollbacks != 0 {
		t.Fatalf("expected commit=1 rollback=0, got %d/%d", d.commits, d.rollbacks)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	d := &fakeDriver{}
	conn := openFakeDB(t, d)
	boom := errors.New("boom")
	err := WithTx(context.Background(), conn, func(*sqlx.Tx) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if d.rollbacks != 1 || d.commits != 0 {
		t.Fatalf("expected rollback=1 commit=0, got %d/%d", d.rollbacks, d.commits)
	}
}

func TestWithTxRetriesSerializationFailure(t *testing.T) {
	d := &fakeDriver{failCommits: 1, failCode: "40001"}
	conn := openFakeDB(t, d)
	if err := WithTx(context.Background(), conn, func(*sqlx.Tx) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.commits != 2 {
		t.Fatalf("expected 2 commit attempts, got %d", d.commits)
	}
}

func TestWithTxRetriesDeadlock(t *testing.T) {
	d := &fakeDriver{failCommits: 2, failCode: "40P01"}
	conn := openFakeDB(t, d)
	if err := WithTx(context.Background(), conn, func(*sqlx.Tx) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.commits != 3 {
		t.Fatalf("expected 3 commit attempts, got %d", d.commits)
	}
}

func TestWithTxGivesUpAfterRetryCap(t *testing.T) {
	d := &fakeDriver{failCommits: 100, failCode: "40001"}
	conn := openFakeDB(t, d)
	err := WithTx(context.Background(), conn, func(*sqlx.Tx) error { return nil })
	if err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if d.commits != 5 {
		t.Fatalf("expected 5 commit attempts, got %d", d.commits)
	}
}

func TestWithTxDoesNotRetryOtherPGErrors(t *testing.T) {
	d := &fakeDriver{failCommits: 100, failCode: "23505"}
	conn := openFakeDB(t, d)
	err := WithTx(context.Background(), conn, func(*sqlx.Tx) error { return nil })
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		t.Fatalf("expected unique violation passed through, got %v", err)
	}
	if d.commits != 1 {
		t.Fatalf("expected single commit attempt, got %d", d.commits)
	}
}
