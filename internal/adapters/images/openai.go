package images

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"biopeptide-research/internal/domain"
	"biopeptide-research/internal/infra/openai"
)

// Темы обложек. Случайный выбор темы разбавляет визуальный ряд канала,
// чтобы подряд не шли одинаковые абстракции.
var imageThemes = []string{
	"Molecular Architecture: macro shot of a single peptide molecule like a neon sculpture.",
	"DNA Data Stream: a stream of binary code folding into a DNA helix.",
	"Neural Jungle: tangled neurons glowing from within like a night forest.",
	"The Blueprint: blue-white human body blueprint with one active zone highlighted (brain or heart).",
	"Peptide Rain: abstract geometric forms falling into water creating concentric circles.",
	"The Wise Professor: close-up portrait of an elderly scientist with wise eyes looking at a tablet.",
	"The Silent Focus: gloved hands carefully holding a single glowing ampoule.",
	"Biohacker Morning: a person with futuristic glasses or a skin patch meditating.",
	"The Discussion: silhouettes of two scientists by a panoramic window in a modern lab.",
	"Micro-Gaze: a scientist's eye looking into a microscope eyepiece with cell reflection.",
	"Robotic Precision: a robotic arm filling a test tube in a pristine white room.",
	"The Petri Art: colorful bacterial cultures in a Petri dish like fine art.",
	"Futuristic Pharmacy: minimalist glass vials on a mirrored surface.",
	"Cryo-Storage: liquid nitrogen vapor from an open cryo storage unit.",
	"Holographic Scan: a 3D brain hologram above a modern desk.",
	"Cellular Energy: a mitochondrion emitting sparks of ATP energy.",
	"Bloodstream Voyage: red blood cells carrying a drug molecule like spacecraft.",
	"Synapse Spark: the moment of signal transfer between two cells, a bright flash.",
	"Regeneration Force: a cell dividing with a golden glow.",
	"Protective Shield: a cell membrane reflecting dark particles.",
}

const (
	imageSize        = "1024x1024"
	scenarioMaxChars = 300
	retryMax         = 3
)

// Generator создаёт обложки статей через OpenAI Images.
type Generator struct {
	client *openai.Client
	model  string
	log    zerolog.Logger
	rand   *rand.Rand
	sleep  func(time.Duration)
}

var _ domain.ImageGenerator = (*Generator)(nil)

// NewGenerator создаёт генератор изображений.
func NewGenerator(client *openai.Client, model string, logger zerolog.Logger) *Generator {
	return &Generator{
		client: client,
		model:  model,
		log:    logger,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:  time.Sleep,
	}
}

// Generate строит промпт из сценария и генерирует изображение.
// До трёх попыток с растущей паузой; пустой URL без ошибки значит,
// что провайдер ничего не вернул.
func (g *Generator) Generate(ctx context.Context, scenario string) (string, error) {
	return g.generate(ctx, g.buildPrompt(scenario))
}

// GenerateRaw генерирует изображение по готовому промпту, минуя тематическую обёртку.
func (g *Generator) GenerateRaw(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, prompt)
}

func (g *Generator) generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < retryMax; attempt++ {
		url, err := g.client.CreateImage(ctx, openai.ImageRequest{
			Model:  g.model,
			Prompt: prompt,
			Size:   imageSize,
		})
		if err == nil {
			return url, nil
		}
		lastErr = err
		retryIn := time.Duration(2+attempt*2) * time.Second
		g.log.Warn().Err(err).Dur("retry_in", retryIn).Msg("генерация изображения не удалась")
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		g.sleep(retryIn)
	}
	return "", lastErr
}

func (g *Generator) buildPrompt(scenario string) string {
	theme := imageThemes[g.rand.Intn(len(imageThemes))]
	base := strings.TrimSpace(scenario)
	if runes := []rune(base); len(runes) > scenarioMaxChars {
		base = string(runes[:scenarioMaxChars])
	}
	hint := ""
	if base != "" {
		hint = "Topic hint: " + base + ". "
	}
	return theme + " " + hint +
		"Use cinematic lighting, 8k resolution, minimalist aesthetic. " +
		"Strictly focus on ONE central object or person. " +
		"Do not mix themes or add extra scientific props outside the chosen theme."
}
