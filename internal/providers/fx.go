package providers

import (
	"github.com/smallbiznis/brokerage/internal/providers/pdf"
	"github.com/smallbiznis/brokerage/internal/providers/storage"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	pdf.Module,
	storage.Module,
)
