package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

type Config struct {
	Tesseract     string // default "tesseract"
	TesseractLang string // default "eng+mal"
	Pdftoppm      string // default "pdftoppm"
	Pdfinfo       string // default "pdfinfo"
	DPI           int    // default 300
	MaxPages      int    // 0 = no limit
	PSM           int
	TempDir       string
}

var (
	pagesLine  = regexp.MustCompile(`(?m)^Pages:\s+(\d+)\s*$`)
	reBoxNoise = regexp.MustCompile(`[|¦]{2,}`)
)

// Engine shells out to tesseract for recognition and to poppler for PDF
// rasterization. Every call works in its own temp dir, so one Engine can
// serve concurrent pages.
type Engine struct {
	cfg    Config
	runner Runner
}

func NewEngine(cfg Config, runner Runner) *Engine {
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng+mal"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Pdfinfo == "" {
		cfg.Pdfinfo = "pdfinfo"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Engine{cfg: cfg, runner: runner}
}

func (e *Engine) PageCount(ctx context.Context, raw []byte) (int, error) {
	var pages int
	err := e.withTempFile(raw, "source.pdf", func(dir, path string) error {
		out, errb, err := e.runner.Run(ctx, e.cfg.Pdfinfo, path)
		if err != nil {
			return toolFailure(e.cfg.Pdfinfo, err, errb)
		}
		m := pagesLine.FindSubmatch(out)
		if m == nil {
			return fmt.Errorf("pdfinfo: no page count in output")
		}
		pages, err = strconv.Atoi(string(m[1]))
		return err
	})
	if err != nil {
		return 0, err
	}
	if e.cfg.MaxPages > 0 && pages > e.cfg.MaxPages {
		pages = e.cfg.MaxPages
	}
	return pages, nil
}

// RenderPage rasterizes one 1-based page to PNG.
func (e *Engine) RenderPage(ctx context.Context, raw []byte, page int) ([]byte, error) {
	if page < 1 {
		return nil, fmt.Errorf("render page: invalid page %d", page)
	}
	var image []byte
	err := e.withTempFile(raw, "source.pdf", func(dir, path string) error {
		prefix := filepath.Join(dir, "page")
		n := strconv.Itoa(page)
		// pdftoppm -r 300 -png -f N -l N -singlefile <in.pdf> <dir/page>
		_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm,
			"-r", strconv.Itoa(e.cfg.DPI), "-png", "-f", n, "-l", n, "-singlefile", path, prefix)
		if err != nil {
			return toolFailure(e.cfg.Pdftoppm, err, errb)
		}
		image, err = os.ReadFile(prefix + ".png")
		if err != nil {
			return fmt.Errorf("read rendered page: %w", err)
		}
		return nil
	})
	return image, err
}

func (e *Engine) Recognize(ctx context.Context, image []byte) (string, error) {
	var text string
	err := e.withTempFile(image, "image", func(_, path string) error {
		args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
		if e.cfg.PSM > 0 {
			args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
		}
		// tesseract <file> stdout -l <lang>
		out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
		if err != nil {
			return toolFailure(e.cfg.Tesseract, err, errb)
		}
		text = strings.TrimSpace(reBoxNoise.ReplaceAllString(string(out), ""))
		return nil
	})
	return text, err
}

func (e *Engine) withTempFile(data []byte, name string, fn func(dir, path string) error) error {
	dir, err := os.MkdirTemp(e.cfg.TempDir, "intake-ocr-*")
	if err != nil {
		return fmt.Errorf("create ocr temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write ocr input: %w", err)
	}
	return fn(dir, path)
}
