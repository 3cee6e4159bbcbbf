package memory_extract

import (
	"gorm.io/gorm"

	jobsdomain "github.com/archisdhar8/religiousAI/internal/domain/jobs"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
	"github.com/archisdhar8/religiousAI/internal/services"
)

type Pipeline struct {
	db  *gorm.DB
	log *logger.Logger

	memory services.MemoryService
}

func New(db *gorm.DB, baseLog *logger.Logger, memory services.MemoryService) *Pipeline {
	return &Pipeline{
		db:     db,
		log:    baseLog.With("job", jobsdomain.TypeMemoryExtract),
		memory: memory,
	}
}

func (p *Pipeline) Type() string { return jobsdomain.TypeMemoryExtract }
