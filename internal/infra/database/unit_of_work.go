package database

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/DioGolang/GoData/internal/application/port/outbound"
	"github.com/DioGolang/GoData/internal/domain/entity"
	"github.com/DioGolang/GoData/pkg/dataerr"
	"github.com/DioGolang/GoData/pkg/logger"
	"github.com/DioGolang/GoData/pkg/metrics"
	"github.com/google/uuid"
)

var ErrClosed = errors.New("unit of work is closed")

type UnitOfWork struct {
	store   outbound.Store
	ids     *entity.IDGenerator
	log     logger.Logger
	metrics metrics.Metrics
	hooks   []outbound.CommitHook
	now     func() time.Time

	repos  map[string]any
	staged []outbound.Operation
	closed bool
}

type UnitOfWorkOption func(*UnitOfWork)

func WithLogger(log logger.Logger) UnitOfWorkOption {
	return func(u *UnitOfWork) { u.log = log }
}

func WithMetrics(m metrics.Metrics) UnitOfWorkOption {
	return func(u *UnitOfWork) { u.metrics = m }
}

func WithHooks(hooks ...outbound.CommitHook) UnitOfWorkOption {
	return func(u *UnitOfWork) { u.hooks = append(u.hooks, hooks...) }
}

func WithClock(now func() time.Time) UnitOfWorkOption {
	return func(u *UnitOfWork) { u.now = now }
}

func NewUnitOfWork(store outbound.Store, ids *entity.IDGenerator, opts ...UnitOfWorkOption) *UnitOfWork {
	u := &UnitOfWork{
		store:   store,
		ids:     ids,
		log:     logger.NewNop(),
		metrics: metrics.NewNoop(),
		now:     utcNow,
		repos:   make(map[string]any),
	}
	for _, opt := range opts {
		opt(u)
	}
	u.log = u.log.With(logger.Database(store.Database()))
	return u
}

func (u *UnitOfWork) Database() string { return u.store.Database() }

// Store returns the backing store for reads. Once the unit of work is closed every
// store call fails with ErrClosed.
func (u *UnitOfWork) Store() outbound.Store {
	if u.closed {
		return closedStore{database: u.store.Database()}
	}
	return u.store
}

func (u *UnitOfWork) NewID() string { return u.ids.Generate() }

func (u *UnitOfWork) Pending() int { return len(u.staged) }

// Stage queues op for the next commit. The id list is copied; staged records are
// encoded at commit, so changes made to them before then are what gets written.
func (u *UnitOfWork) Stage(op outbound.Operation) error {
	if u.closed {
		return ErrClosed
	}
	op.Docs = slices.Clone(op.Docs)
	op.IDs = slices.Clone(op.IDs)
	u.staged = append(u.staged, op)
	return nil
}

// Repository caches build's result under key. A closed unit of work builds an
// uncached repository whose calls fail with ErrClosed.
func (u *UnitOfWork) Repository(key string, build func() any) any {
	if u.closed {
		return build()
	}
	if r, ok := u.repos[key]; ok {
		return r
	}
	r := build()
	u.repos[key] = r
	return r
}

func (u *UnitOfWork) Commit(ctx context.Context) error {
	return u.CommitAs(ctx, "")
}

// CommitAs flushes every staged operation in one store transaction, stamping
// inserted and replaced records with actorID. On failure the batch stays staged.
func (u *UnitOfWork) CommitAs(ctx context.Context, actorID string) error {
	const op = "uow.Commit"
	if u.closed {
		return dataerr.Persistence(op, ErrClosed)
	}
	if len(u.staged) == 0 {
		return nil
	}

	batch := u.staged
	start := time.Now()
	audit := outbound.Audit{ActorID: actorID, At: u.now().UTC()}
	prior := stamp(batch, audit)

	err := u.flush(ctx, batch, audit)
	u.metrics.RecordCommit(u.Database(), len(batch), err == nil, time.Since(start))
	if err != nil {
		restore(batch, prior)
		u.log.Error(ctx, "commit failed",
			logger.Operations(len(batch)),
			logger.Actor(actorID),
			logger.WithError(err),
		)
		return dataerr.Persistence(op, err)
	}
	u.staged = nil

	u.log.Debug(ctx, "commit applied",
		logger.Operations(len(batch)),
		logger.Actor(actorID),
		logger.Duration("took", time.Since(start)),
	)
	u.notify(ctx, u.record(batch, audit))
	return nil
}

// stamp touches every staged record for this commit and returns the stamps
// they carried before, in batch order.
func stamp(batch []outbound.Operation, audit outbound.Audit) []entity.Stamps {
	var prior []entity.Stamps
	for _, o := range batch {
		for _, d := range o.Docs {
			prior = append(prior, d.Stamps())
			d.Touch(audit.ActorID, audit.At)
		}
	}
	return prior
}

// restore undoes stamp after a failed commit. It walks the batch backwards so a
// record staged twice ends with its oldest stamps.
func restore(batch []outbound.Operation, prior []entity.Stamps) {
	i := len(prior)
	for b := len(batch) - 1; b >= 0; b-- {
		docs := batch[b].Docs
		for d := len(docs) - 1; d >= 0; d-- {
			i--
			docs[d].SetStamps(prior[i])
		}
	}
}

func (u *UnitOfWork) flush(ctx context.Context, batch []outbound.Operation, audit outbound.Audit) error {
	tx, err := u.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	for _, o := range batch {
		if err := apply(ctx, tx, o, audit); err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				return fmt.Errorf("tx err: %w, rb err: %v", err, rbErr)
			}
			return err
		}
	}
	return tx.Commit(ctx)
}

func apply(ctx context.Context, tx outbound.StoreTx, o outbound.Operation, audit outbound.Audit) error {
	var err error
	switch o.Kind {
	case outbound.OpInsert:
		err = tx.Insert(ctx, o.Collection, o.Docs)
	case outbound.OpReplace:
		err = tx.Replace(ctx, o.Collection, o.Docs)
	case outbound.OpDelete:
		err = tx.Delete(ctx, o.Collection, o.IDs)
	case outbound.OpDisable:
		err = tx.Disable(ctx, o.Collection, o.IDs, audit)
	default:
		err = fmt.Errorf("unknown operation %d", o.Kind)
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", o.Kind, o.Collection, err)
	}
	return nil
}

func (u *UnitOfWork) record(batch []outbound.Operation, audit outbound.Audit) outbound.CommitRecord {
	changes := make([]outbound.Change, 0, len(batch))
	for _, o := range batch {
		changes = append(changes, outbound.Change{
			Collection: o.Collection,
			Kind:       o.Kind,
			IDs:        o.TargetIDs(),
		})
	}
	return outbound.CommitRecord{
		ID:          uuid.NewString(),
		Database:    u.Database(),
		ActorID:     audit.ActorID,
		CommittedAt: audit.At,
		Changes:     changes,
	}
}

// notify runs the commit hooks. The commit already happened, so hook errors are only logged.
func (u *UnitOfWork) notify(ctx context.Context, rec outbound.CommitRecord) {
	for _, h := range u.hooks {
		if err := h.AfterCommit(ctx, rec); err != nil {
			u.log.Warn(ctx, "commit hook failed",
				logger.CommitID(rec.ID),
				logger.WithError(err),
			)
		}
	}
}

func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.closed {
		return dataerr.Persistence("uow.Rollback", ErrClosed)
	}
	if n := len(u.staged); n > 0 {
		u.log.Debug(ctx, "rolled back staged operations", logger.Operations(n))
	}
	u.staged = nil
	return nil
}

func (u *UnitOfWork) Close(ctx context.Context) error {
	if u.closed {
		return nil
	}
	u.closed = true
	if n := len(u.staged); n > 0 {
		u.log.Warn(ctx, "closing unit of work with uncommitted operations", logger.Operations(n))
	}
	u.staged = nil
	u.repos = nil
	return nil
}

// Do runs fn inside the unit of work: commit as actorID on success, roll back on
// error or panic, and close on every path.
func (u *UnitOfWork) Do(ctx context.Context, actorID string, fn func(uow outbound.UnitOfWork) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			_ = u.Rollback(ctx)
			_ = u.Close(ctx)
			panic(p)
		}
		if cerr := u.Close(ctx); err == nil {
			err = cerr
		}
	}()

	if err := fn(u); err != nil {
		if rbErr := u.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx err: %w, rb err: %v", err, rbErr)
		}
		return err
	}
	return u.CommitAs(ctx, actorID)
}

type closedStore struct {
	database string
}

func (s closedStore) Database() string { return s.database }

func (closedStore) FindByID(context.Context, string, string, any) error { return ErrClosed }

func (closedStore) FindAll(context.Context, string, any) error { return ErrClosed }

func (closedStore) FindAllProjected(context.Context, string, any) error { return ErrClosed }

func (closedStore) Begin(context.Context) (outbound.StoreTx, error) { return nil, ErrClosed }

func (closedStore) Ping(context.Context) error { return ErrClosed }

func (closedStore) Close(context.Context) error { return nil }
