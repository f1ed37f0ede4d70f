package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
)

// DefaultTemplate is the page rendered by the controller.
const DefaultTemplate = "dashboard"

// Renderer renders a named template. go-template's renderer satisfies it.
type Renderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
}

// PayloadResolver produces the view payload for a viewer.
type PayloadResolver interface {
	ViewPayload(ctx context.Context, viewer ViewerContext) (ViewPayload, error)
}

// ControllerOptions configures the controller.
type ControllerOptions struct {
	Service  PayloadResolver
	Renderer Renderer
	Template string
}

// Controller renders the dashboard page for a viewer.
type Controller struct {
	service  PayloadResolver
	renderer Renderer
	template string
}

// NewController wires the service into a controller.
func NewController(opts ControllerOptions) *Controller {
	if opts.Template == "" {
		opts.Template = DefaultTemplate
	}
	return &Controller{
		service:  opts.Service,
		renderer: opts.Renderer,
		template: opts.Template,
	}
}

// Payload resolves the view payload for a viewer.
func (c *Controller) Payload(ctx context.Context, viewer ViewerContext) (ViewPayload, error) {
	if c.service == nil {
		return ViewPayload{}, errors.New("dashboard: controller has no service")
	}
	return c.service.ViewPayload(ctx, viewer)
}

// RenderTemplate renders the current view into out.
func (c *Controller) RenderTemplate(ctx context.Context, viewer ViewerContext, out io.Writer) error {
	if c.renderer == nil {
		return errors.New("dashboard: controller has no renderer")
	}
	payload, err := c.Payload(ctx, viewer)
	if err != nil {
		return err
	}
	data, err := templateData(payload)
	if err != nil {
		return err
	}
	_, err = c.renderer.Render(c.template, data, out)
	return err
}

// templateData flattens the payload into the JSON shape templates address.
func templateData(payload ViewPayload) (map[string]any, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}
