package comfyui

import "github.com/google/uuid"

// WorkflowOptions control the Flux poster workflow. Zero values fall back to
// poster-sized defaults.
type WorkflowOptions struct {
	Width    int
	Height   int
	Steps    int
	Guidance float64
	Seed     int64 // <= 0 picks a random seed
}

func (o *WorkflowOptions) applyDefaults() {
	if o.Width <= 0 {
		o.Width = 768
	}
	if o.Height <= 0 {
		o.Height = 1152
	}
	if o.Steps <= 0 {
		o.Steps = 20
	}
	if o.Guidance <= 0 {
		o.Guidance = 3.5
	}
	if o.Seed <= 0 {
		o.Seed = int64(uuid.New().ID())
	}
}

// BuildFluxWorkflow builds the fixed Flux Dev node graph for poster
// generation. Node IDs and wiring match what the ComfyUI /prompt endpoint
// expects: each node names its class and input connections.
func BuildFluxWorkflow(prompt string, opts WorkflowOptions) map[string]any {
	opts.applyDefaults()

	return map[string]any{
		"1": map[string]any{
			"class_type": "CheckpointLoaderSimple",
			"inputs": map[string]any{
				"ckpt_name": "flux1-dev.safetensors",
			},
		},
		"2": map[string]any{
			"class_type": "CLIPTextEncode",
			"inputs": map[string]any{
				"text": prompt,
				"clip": []any{"1", 1},
			},
		},
		"3": map[string]any{
			"class_type": "EmptyLatentImage",
			"inputs": map[string]any{
				"width":      opts.Width,
				"height":     opts.Height,
				"batch_size": 1,
			},
		},
		"4": map[string]any{
			"class_type": "KSampler",
			"inputs": map[string]any{
				"seed":         opts.Seed,
				"steps":        opts.Steps,
				"cfg":          opts.Guidance,
				"sampler_name": "euler",
				"scheduler":    "normal",
				"denoise":      1.0,
				"model":        []any{"1", 0},
				"positive":     []any{"2", 0},
				"negative":     []any{"5", 0},
				"latent_image": []any{"3", 0},
			},
		},
		"5": map[string]any{
			"class_type": "CLIPTextEncode",
			"inputs": map[string]any{
				"text": "",
				"clip": []any{"1", 1},
			},
		},
		"6": map[string]any{
			"class_type": "VAEDecode",
			"inputs": map[string]any{
				"samples": []any{"4", 0},
				"vae":     []any{"1", 2},
			},
		},
		"7": map[string]any{
			"class_type": "SaveImage",
			"inputs": map[string]any{
				"filename_prefix": "flux_poster",
				"images":          []any{"6", 0},
			},
		},
	}
}
