// Package imaging validates and shrinks a candidate image before upload and
// tracks the preview/removal state of the form's single attachment slot.
package imaging

import (
	"bytes"
	"image"
	"image/jpeg"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"

	"bulletin/internal/pkg/imagex"

	_ "image/gif"
	_ "image/png"
)

// File is a named byte blob, the client-side shape of a selected image.
type File struct {
	Name string
	Data []byte
}

type Config struct {
	// MaxDecodeBytes is the "do not even try to decode this" ceiling,
	// independent of the post-resize limit.
	MaxDecodeBytes int

	// MaxUploadBytes is the server's accepted upload size; resized output
	// must fit under it.
	MaxUploadBytes int

	// MaxDimension bounds the longer side after resizing.
	MaxDimension int

	JPEGQuality int

	// MediaPathMark identifies server-sourced previews: any preview URL
	// containing it (or any absolute URL) refers to a stored server image.
	MediaPathMark string
}

func DefaultConfig() Config {
	return Config{
		MaxDecodeBytes: 20 * 1024 * 1024,
		MaxUploadBytes: 3 * 1024 * 1024,
		MaxDimension:   1920,
		JPEGQuality:    80,
		MediaPathMark:  "/static/uploads",
	}
}

// allowedExtensions guards against MIME spoofing: a mismatched extension is
// rejected even when the sniffed type passed.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

const (
	msgTooLargeToProcess = "이미지 용량이 너무 커서 처리할 수 없습니다."
	msgNotAnImage        = "이미지 파일만 업로드할 수 있습니다."
	msgBadExtension      = "지원하지 않는 이미지 형식입니다."
	msgStillTooLarge     = "이미지를 줄여도 용량 제한을 초과합니다."
	msgInvalidImage      = "이미지를 처리할 수 없습니다."
	msgBusy              = "이미 이미지를 처리하는 중입니다."
	msgFileTooLarge      = "이미지 용량이 너무 큽니다."
)

// Intake holds the attachment slot state. At most one file is tracked;
// selecting a new candidate always supersedes prior error and preview state.
type Intake struct {
	cfg Config

	selected           *File
	preview            string
	fileErr            string
	dragging           bool
	deletedServerImage bool
	processing         bool
}

func NewIntake(cfg Config) *Intake {
	return &Intake{cfg: cfg}
}

// Candidate runs the intake pipeline on a selected file, stopping at the
// first failing check. Rejections set the inline error and clear any prior
// selection so the same file can be re-selected after a fix.
func (in *Intake) Candidate(file File) {
	if in.processing {
		// A resize is in flight; racing it would let the slower candidate
		// win. Reject instead.
		in.fileErr = msgBusy
		return
	}
	in.processing = true
	defer func() { in.processing = false }()

	// Any new selection re-arms server-image deletion tracking.
	in.deletedServerImage = false

	if len(file.Data) > in.cfg.MaxDecodeBytes {
		in.reject(msgTooLargeToProcess)
		return
	}

	mime := imagex.DetectMime(file.Data)
	if !strings.HasPrefix(mime, "image/") {
		in.reject(msgNotAnImage)
		return
	}

	if !allowedExtensions[strings.ToLower(filepath.Ext(file.Name))] {
		in.reject(msgBadExtension)
		return
	}

	if len(file.Data) <= in.cfg.MaxUploadBytes {
		in.accept(file, imagex.DataURI(mime, file.Data))
		return
	}

	resized, err := in.resize(file)
	if err != nil {
		in.reject(msgInvalidImage)
		return
	}
	if len(resized.Data) > in.cfg.MaxUploadBytes {
		in.reject(msgStillTooLarge)
		return
	}
	in.accept(resized, imagex.DataURI("image/jpeg", resized.Data))
}

// Remove clears the attachment slot. When the current preview refers to a
// server image, the deletion flag latches so submission can tell the server
// to drop it; the flag only resets when a new selection begins.
func (in *Intake) Remove() {
	if in.previewServerSourced() {
		in.deletedServerImage = true
	}
	in.selected = nil
	in.preview = ""
	in.fileErr = ""
}

// SetServerPreview shows an already-stored server image without selecting a
// file, as edit mode does at load.
func (in *Intake) SetServerPreview(url string) {
	in.selected = nil
	in.preview = url
	in.fileErr = ""
}

// Drag state is a pure UI overlay; it never affects the pipeline.
func (in *Intake) DragEnter() { in.dragging = true }
func (in *Intake) DragLeave() { in.dragging = false }

// DragOver exists so callers suppress the host's native drop handling on
// every event; there is no state to change.
func (in *Intake) DragOver() {}

// Revalidate re-checks the currently selected file against the same limits
// the pipeline applied at selection time. Submission calls it so that state
// mutated outside the pipeline still cannot smuggle a bad file through. The
// returned message is empty when the slot is valid or empty.
func (in *Intake) Revalidate() string {
	if in.selected == nil {
		return ""
	}
	f := in.selected
	if len(f.Data) > in.cfg.MaxUploadBytes {
		return msgFileTooLarge
	}
	if !strings.HasPrefix(imagex.DetectMime(f.Data), "image/") {
		return msgNotAnImage
	}
	if !allowedExtensions[strings.ToLower(filepath.Ext(f.Name))] {
		return msgBadExtension
	}
	return ""
}

func (in *Intake) Selected() *File          { return in.selected }
func (in *Intake) Preview() string          { return in.preview }
func (in *Intake) Err() string              { return in.fileErr }
func (in *Intake) Dragging() bool           { return in.dragging }
func (in *Intake) DeletedServerImage() bool { return in.deletedServerImage }

func (in *Intake) accept(file File, preview string) {
	in.selected = &file
	in.preview = preview
	in.fileErr = ""
}

func (in *Intake) reject(msg string) {
	in.selected = nil
	in.preview = ""
	in.fileErr = msg
}

func (in *Intake) previewServerSourced() bool {
	p := in.preview
	if p == "" {
		return false
	}
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return true
	}
	return in.cfg.MediaPathMark != "" && strings.Contains(p, in.cfg.MediaPathMark)
}

// resize decodes, scales down to fit MaxDimension on the longer side, and
// re-encodes as JPEG at the configured quality. It never upscales.
func (in *Intake) resize(file File) (File, error) {
	img, _, err := image.Decode(bytes.NewReader(file.Data))
	if err != nil {
		return File{}, err
	}

	bounds := img.Bounds()
	w, h := imagex.FitDimensions(bounds.Dx(), bounds.Dy(), in.cfg.MaxDimension)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: in.cfg.JPEGQuality}); err != nil {
		return File{}, err
	}

	return File{Name: jpegName(file.Name), Data: buf.Bytes()}, nil
}

func jpegName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		base = "image"
	}
	return base + ".jpg"
}
