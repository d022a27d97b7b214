package audit

import "context"

type RecordCommitUseCase interface {
	Execute(ctx context.Context, input RecordCommitInput) (RecordCommitOutput, error)
}
