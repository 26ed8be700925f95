package llm

import (
	"context"

	"github.com/Fen1x123/medconsultant/internal/prompt"
)

// Completer is the generative-model port the pipeline depends on: an
// ordered block sequence in, one text completion out. Implementations are
// black boxes; every failure mode surfaces as a single model-invocation
// error and is never retried here.
type Completer interface {
	Complete(ctx context.Context, blocks []prompt.Block) (string, error)
}
