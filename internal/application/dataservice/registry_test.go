package dataservice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DioGolang/GoData/internal/application/dataservice"
	"github.com/DioGolang/GoData/internal/domain/entity"
	"github.com/DioGolang/GoData/internal/infra/database"
	"github.com/DioGolang/GoData/pkg/dataerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noteBook is a custom service composing two entity services over one unit of work.
type noteBook struct {
	notes  dataservice.CrudService[entity.Note]
	audits dataservice.CrudService[entity.AuditEntry]
}

func (b *noteBook) Write(ctx context.Context, title string) (string, error) {
	n := &entity.Note{Title: title}
	if _, err := b.notes.Add(ctx, n); err != nil {
		return "", err
	}
	if _, err := b.audits.Add(ctx, &entity.AuditEntry{CommitID: "manual", Kind: entity.ChangeInserted}); err != nil {
		return "", err
	}
	return n.ID, b.notes.Commit(ctx)
}

func newNoteBook(d dataservice.Deps) (*noteBook, error) {
	notes, err := dataservice.CrudFrom[entity.Note](d)
	if err != nil {
		return nil, err
	}
	audits, err := dataservice.CrudFrom[entity.AuditEntry](d)
	if err != nil {
		return nil, err
	}
	return &noteBook{notes: notes, audits: audits}, nil
}

func (f *fixture) registry(opts ...dataservice.Option) *dataservice.Registry {
	return dataservice.NewRegistry(f.uows, f.m, opts...)
}

func TestRegistry_BuildRejectsBadRegistrations(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		setup func(r *dataservice.Registry)
	}{
		{"empty collection", func(r *dataservice.Registry) {
			dataservice.Register(r, "", database.RepositoryFor[entity.Note])
		}},
		{"nil repository func", func(r *dataservice.Registry) {
			dataservice.Register[entity.Note](r, "notes", nil)
		}},
		{"duplicate entity", func(r *dataservice.Registry) {
			dataservice.Register(r, "notes", database.RepositoryFor[entity.Note])
			dataservice.Register(r, "notes2", database.RepositoryFor[entity.Note])
		}},
		{"nil constructor", func(r *dataservice.Registry) {
			dataservice.RegisterService[*noteBook](r, nil)
		}},
		{"unsupported lifetime", func(r *dataservice.Registry) {
			dataservice.Register(r, "notes", database.RepositoryFor[entity.Note], dataservice.WithLifetime(dataservice.Lifetime(9)))
		}},
		{"nil interceptor", func(r *dataservice.Registry) {
			dataservice.Register(r, "notes", database.RepositoryFor[entity.Note],
				dataservice.WithInterceptors(dataservice.TargetAll, nil))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := f.registry()
			tt.setup(r)

			factory, err := r.Build()

			assert.ErrorIs(t, err, dataerr.ErrConfiguration)
			assert.Nil(t, factory)
		})
	}

	_, err := dataservice.NewRegistry(nil, nil).Build()
	assert.ErrorIs(t, err, dataerr.ErrConfiguration)
}

func TestFactory_ResolveFailuresAreConfigurationErrors(t *testing.T) {
	f := newFixture(t)
	r := f.registry()
	dataservice.Register(r, "notes", database.RepositoryFor[entity.Note])
	dataservice.Register(r, "audit", database.RepositoryFor[entity.AuditEntry], dataservice.WithLifetime(dataservice.Scoped))
	factory, err := r.Build()
	require.NoError(t, err)

	_, errUnknownType := dataservice.GetCrud[entity.NoteSummary](factory)
	_, errUnknownDB := dataservice.GetReadOnlyFrom[entity.Note](factory, "nope")
	_, errScoped := dataservice.GetCrud[entity.AuditEntry](factory)
	_, errService := dataservice.Get[*noteBook](factory)

	for _, err := range []error{errUnknownType, errUnknownDB, errScoped, errService} {
		assert.ErrorIs(t, err, dataerr.ErrConfiguration)
	}
	assert.ErrorContains(t, errScoped, "resolve it from a Scope")

	dataservice.Register(r, "late", database.RepositoryFor[entity.Note])
	_, err = r.Build()
	assert.ErrorIs(t, err, dataerr.ErrConfiguration, "registry is frozen after build")
}

func TestFactory_TransientResolvesFreshServices(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := f.registry()
	dataservice.Register(r, "notes", database.RepositoryFor[entity.Note])
	factory, err := r.Build()
	require.NoError(t, err)

	a, err := dataservice.GetCrud[entity.Note](factory)
	require.NoError(t, err)
	defer a.Close(ctx)
	b, err := dataservice.GetCrudFrom[entity.Note](factory, "archive")
	require.NoError(t, err)
	defer b.Close(ctx)

	_, err = a.Add(ctx, &entity.Note{Title: "main only"}, dataservice.WithCommit())
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Equal(t, "main", a.Database())
	assert.Equal(t, "archive", b.Database())
	inArchive, err := b.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, inArchive)
}

func TestScope_ScopedServicesShareOneUnitOfWork(t *testing.T) {
	//Arrange
	ctx := context.Background()
	f := newFixture(t)
	r := f.registry()
	dataservice.Register(r, "notes", database.RepositoryFor[entity.Note], dataservice.WithLifetime(dataservice.Scoped))
	dataservice.Register(r, "audit", database.RepositoryFor[entity.AuditEntry], dataservice.WithLifetime(dataservice.Scoped))
	factory, err := r.Build()
	require.NoError(t, err)
	scope := factory.NewScope()

	//Act
	notes, err := dataservice.GetCrud[entity.Note](scope)
	require.NoError(t, err)
	again, err := dataservice.GetCrud[entity.Note](scope)
	require.NoError(t, err)
	audits, err := dataservice.GetCrud[entity.AuditEntry](scope)
	require.NoError(t, err)

	_, err = notes.Add(ctx, &entity.Note{Title: "n"})
	require.NoError(t, err)
	_, err = audits.Add(ctx, &entity.AuditEntry{CommitID: "c", Kind: entity.ChangeInserted})
	require.NoError(t, err)

	//Assert
	assert.Same(t, notes, again)
	assert.Equal(t, 2, notes.Pending(), "both services stage into the same unit of work")
	require.NoError(t, scope.Commit(ctx, "ops"))
	stored, err := notes.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	require.NoError(t, scope.Close(ctx))
	require.NoError(t, scope.Close(ctx))
	_, err = notes.Add(ctx, &entity.Note{Title: "after close"})
	assert.ErrorIs(t, err, database.ErrClosed)
	_, err = dataservice.GetCrud[entity.Note](scope)
	assert.ErrorIs(t, err, dataerr.ErrConfiguration)
}

func TestScope_CustomService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := f.registry()
	dataservice.Register(r, "notes", database.RepositoryFor[entity.Note])
	dataservice.Register(r, "audit", database.RepositoryFor[entity.AuditEntry])
	dataservice.RegisterService(r, newNoteBook, dataservice.WithLifetime(dataservice.Scoped))
	factory, err := r.Build()
	require.NoError(t, err)
	scope := factory.NewScope()
	defer scope.Close(ctx)

	book, err := dataservice.GetFrom[*noteBook](scope, "archive")
	require.NoError(t, err)
	id, err := book.Write(ctx, "composed")
	require.NoError(t, err)

	ro, err := dataservice.GetReadOnlyFrom[entity.Note](scope, "archive")
	require.NoError(t, err)
	got, err := ro.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "composed", got.Title)
	audits, err := dataservice.GetReadOnlyFrom[entity.AuditEntry](scope, "archive")
	require.NoError(t, err)
	all, err := audits.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "both writes landed in one commit")
}

func TestRegisterService_ConstructorErrorIsConfigurationError(t *testing.T) {
	f := newFixture(t)
	r := f.registry()
	dataservice.RegisterService(r, func(dataservice.Deps) (*noteBook, error) {
		return nil, errors.New("missing dependency")
	})
	factory, err := r.Build()
	require.NoError(t, err)

	_, err = dataservice.Get[*noteBook](factory)

	assert.ErrorIs(t, err, dataerr.ErrConfiguration)
	assert.ErrorContains(t, err, "missing dependency")
}
