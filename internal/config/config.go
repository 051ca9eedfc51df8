package config

import (
	"strings"

	"github.com/kelseyhightower/envconfig"

	"github.com/osu-uwrt/data-collection-webapp/internal/editor"
)

type Config struct {
	Port            int     `envconfig:"PORT" default:"8080"`
	DatabaseURL     string  `envconfig:"DATABASE_URL"`
	DataDir         string  `envconfig:"DATA_DIR" default:"./data/frames"`
	UploadDir       string  `envconfig:"UPLOAD_DIR" default:"./data/uploads"`
	FfmpegPath      string  `envconfig:"FFMPEG_PATH" default:"ffmpeg"`
	AllowedOrigins  string  `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	MinBoxWidth     float64 `envconfig:"MIN_BOX_WIDTH" default:"10"`
	MinBoxHeight    float64 `envconfig:"MIN_BOX_HEIGHT" default:"10"`
	CornerSize      float64 `envconfig:"CORNER_SIZE" default:"10"`
	SideThreshold   float64 `envconfig:"SIDE_THRESHOLD" default:"5"`
	VertexThreshold float64 `envconfig:"VERTEX_THRESHOLD" default:"10"`
	MaxCanvasWidth  float64 `envconfig:"MAX_CANVAS_WIDTH" default:"1440"`
	MaxCanvasHeight float64 `envconfig:"MAX_CANVAS_HEIGHT" default:"800"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EditorOptions returns the session tolerances for a full-size canvas.
func (c *Config) EditorOptions() editor.Options {
	return editor.Options{
		MinWidth:        c.MinBoxWidth,
		MinHeight:       c.MinBoxHeight,
		CornerSize:      c.CornerSize,
		SideThreshold:   c.SideThreshold,
		VertexThreshold: c.VertexThreshold,
		CanvasWidth:     c.MaxCanvasWidth,
		CanvasHeight:    c.MaxCanvasHeight,
	}
}

// Origins splits AllowedOrigins into its comma-separated entries.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// OriginPatterns strips the scheme from each origin for websocket.AcceptOptions.
func (c *Config) OriginPatterns() []string {
	origins := c.Origins()
	out := make([]string, len(origins))
	for i, o := range origins {
		_, host, found := strings.Cut(o, "://")
		if !found {
			host = o
		}
		out[i] = host
	}
	return out
}
