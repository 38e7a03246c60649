package email

import (
	"fmt"
	"log/slog"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	"github.com/prajwalc1/employee-timeline/internal/core/ports"
)

// ProviderFactory builds a provider per send from the active
// configuration, so configuration changes apply to the next message.
type ProviderFactory struct {
	preview *PreviewProvider
	logger  *slog.Logger
}

var _ ports.ProviderFactory = (*ProviderFactory)(nil)

func NewProviderFactory(preview *PreviewProvider, logger *slog.Logger) *ProviderFactory {
	return &ProviderFactory{preview: preview, logger: logger}
}

func (f *ProviderFactory) Build(cfg domain.ProviderConfig) (ports.DeliveryProvider, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Kind {
	case domain.ProviderSMTP:
		return NewSMTPProvider(cfg, f.logger)
	case domain.ProviderSendmail:
		return NewSendmailProvider(cfg, f.logger), nil
	case domain.ProviderPreview:
		return f.preview, nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Kind)
	}
}

func (f *ProviderFactory) Preview() ports.DeliveryProvider {
	return f.preview
}
