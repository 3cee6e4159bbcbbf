package memory_extract

import (
	"fmt"

	"github.com/google/uuid"

	jobsdomain "github.com/archisdhar8/religiousAI/internal/domain/jobs"
	jobrt "github.com/archisdhar8/religiousAI/internal/jobs/runtime"
)

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	var payload jobsdomain.MemoryExtractPayload
	if err := jc.Decode(&payload); err != nil {
		jc.Fail("validate", err)
		return nil
	}
	if payload.UserID == uuid.Nil {
		payload.UserID = jc.Job.OwnerUserID
	}
	if payload.UserID != jc.Job.OwnerUserID {
		jc.Fail("validate", fmt.Errorf("payload user does not own job"))
		return nil
	}

	mem, changed, err := p.memory.Extract(jc.OwnerContext(), payload)
	if err != nil {
		jc.Fail("extract", err)
		return nil
	}

	result := map[string]any{
		"user_id": payload.UserID.String(),
		"changed": changed,
	}
	if mem != nil {
		result["exchange_count"] = mem.ExchangeCount
	}
	p.log.Debug("memory extracted", "user_id", payload.UserID, "changed", changed)
	jc.Succeed(result)
	return nil
}
