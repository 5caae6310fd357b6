package toolset

import (
	"context"
	"log/slog"

	"github.com/scadtools/scadrender/internal/render"
	"github.com/scadtools/scadrender/internal/scadview"
)

// RenderPayload is the tool-call response envelope for a rendered image.
type RenderPayload struct {
	Name      string `json:"name"`
	View      string `json:"view"`
	Format    string `json:"format"`
	MediaType string `json:"media_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Data      string `json:"data"`
}

func (e *Executor) executeRender(ctx context.Context, arguments map[string]any) (any, error) {
	script, err := stringArgument(arguments, "script")
	if err != nil {
		return nil, err
	}
	baseName, err := optionalStringArgument(arguments, "name", render.DefaultBaseName)
	if err != nil {
		return nil, err
	}
	viewName, err := optionalStringArgument(arguments, "view", string(scadview.View3D))
	if err != nil {
		return nil, err
	}
	sizeSpec, err := optionalStringArgument(arguments, "image_size", render.DefaultImageSize.String())
	if err != nil {
		return nil, err
	}
	size, err := render.ParseImageSize(sizeSpec)
	if err != nil {
		return nil, err
	}

	img, err := e.renderer.Render(ctx, render.Request{
		Script:    script,
		BaseName:  baseName,
		View:      scadview.View(viewName),
		ImageSize: size,
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("render tool completed",
		slog.String("base_name", baseName),
		slog.String("view", viewName),
		slog.Int("bytes", len(img.Data)),
	)

	return RenderPayload{
		Name:      baseName,
		View:      viewName,
		Format:    img.Format,
		MediaType: img.MediaType,
		Width:     img.Width,
		Height:    img.Height,
		Data:      img.Base64(),
	}, nil
}
