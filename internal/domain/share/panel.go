package share

import (
	"context"
	"fmt"
	"sync"
)

// DownloadFilename is the name offered for downloaded codes
const DownloadFilename = "qr-code.png"

// Panel shows a QR code for the current page and exports it.
// The raster is redrawn only when the payload or size changes.
type Panel struct {
	rasterizer Rasterizer

	mu      sync.Mutex
	payload string
	size    int
	png     []byte
}

// NewPanel creates an empty panel
func NewPanel(r Rasterizer) *Panel {
	return &Panel{rasterizer: r}
}

// Render returns the raster for payload at size, reusing the last one when nothing changed
func (p *Panel) Render(ctx context.Context, payload string, size int) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.png != nil && p.payload == payload && p.size == size {
		return p.png, nil
	}

	png, err := p.rasterizer.Rasterize(ctx, payload, size)
	if err != nil {
		return nil, err
	}

	p.payload = payload
	p.size = size
	p.png = png
	return png, nil
}

// Download returns the most recent raster with its file name
func (p *Panel) Download() (string, []byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.png == nil {
		return "", nil, ErrNothingRendered
	}
	out := make([]byte, len(p.png))
	copy(out, p.png)
	return DownloadFilename, out, nil
}

// Payload returns the last rendered payload
func (p *Panel) Payload() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.payload
}

// DefaultMaxPanels bounds how many shared pages keep a panel in memory
const DefaultMaxPanels = 256

// Panels holds one Panel per payload and size so repeated views reuse the drawn raster.
// The oldest panel is evicted once max is reached.
type Panels struct {
	rasterizer Rasterizer
	max        int

	mu     sync.Mutex
	panels map[string]*Panel
	order  []string
}

// NewPanels creates an empty panel set
func NewPanels(r Rasterizer, max int) *Panels {
	if max < 1 {
		max = DefaultMaxPanels
	}
	return &Panels{
		rasterizer: r,
		max:        max,
		panels:     make(map[string]*Panel),
	}
}

// For returns the panel for payload at size, creating it on first use
func (p *Panels) For(payload string, size int) *Panel {
	key := fmt.Sprintf("%d:%s", size, payload)

	p.mu.Lock()
	defer p.mu.Unlock()

	if panel, ok := p.panels[key]; ok {
		return panel
	}
	if len(p.order) >= p.max {
		oldest := p.order[0]
		p.order = p.order[1:]
		delete(p.panels, oldest)
	}
	panel := NewPanel(p.rasterizer)
	p.panels[key] = panel
	p.order = append(p.order, key)
	return panel
}

// Len returns the number of held panels
func (p *Panels) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.panels)
}
