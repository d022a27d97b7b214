package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/DioGolang/GoData/internal/application/dataservice"
	"github.com/DioGolang/GoData/internal/application/port/outbound"
	"github.com/DioGolang/GoData/internal/domain/entity"
	"github.com/DioGolang/GoData/pkg/dataerr"
)

// Collection holds the audit trail. Changes to it are never audited again.
const Collection = "audit"

type RecordCommitUseCaseImpl struct {
	Services dataservice.Resolver
	// Database receives the entries; empty means the database the commit happened in.
	Database string
}

func NewRecordCommitUseCase(services dataservice.Resolver, database string) *RecordCommitUseCaseImpl {
	return &RecordCommitUseCaseImpl{
		Services: services,
		Database: database,
	}
}

func (uc *RecordCommitUseCaseImpl) Execute(ctx context.Context, input RecordCommitInput) (RecordCommitOutput, error) {
	entries, err := entriesFor(input)
	if err != nil {
		return RecordCommitOutput{}, err
	}
	if len(entries) == 0 {
		return RecordCommitOutput{}, nil
	}

	db := uc.Database
	if db == "" {
		db = input.Database
	}
	svc, err := dataservice.GetCrudFrom[entity.AuditEntry](uc.Services, db)
	if err != nil {
		return RecordCommitOutput{}, err
	}
	defer func() { _ = svc.Close(ctx) }()

	_, err = svc.AddRange(ctx, entries, dataservice.WithCommit(), dataservice.WithActor(input.ActorID))
	if errors.Is(err, outbound.ErrDuplicateID) {
		// the commit was recorded by an earlier delivery
		return RecordCommitOutput{Duplicate: true}, nil
	}
	if err != nil {
		return RecordCommitOutput{}, err
	}
	return RecordCommitOutput{Recorded: len(entries)}, nil
}

// entriesFor builds one entry per change. Entry ids derive from the commit id so a
// redelivered commit collides instead of being recorded twice.
func entriesFor(input RecordCommitInput) ([]*entity.AuditEntry, error) {
	const op = "audit.RecordCommit"
	entries := make([]*entity.AuditEntry, 0, len(input.Changes))
	for i, c := range input.Changes {
		if c.Collection == Collection {
			continue
		}
		e := &entity.AuditEntry{
			CommitID:    input.CommitID,
			Database:    input.Database,
			Actor:       input.ActorID,
			Collection:  c.Collection,
			Kind:        entity.ChangeKind(c.Kind),
			DocumentIDs: c.IDs,
			CommittedAt: input.CommittedAt,
		}
		if err := e.Validate(); err != nil {
			return nil, dataerr.InvalidArgument(op, fmt.Sprintf("change %d: %v", i, err))
		}
		e.ID = fmt.Sprintf("%s-%d", input.CommitID, i)
		entries = append(entries, e)
	}
	return entries, nil
}
