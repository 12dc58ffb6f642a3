// Package compose orchestrates the post form: field state, the draft store,
// the image intake slot, and the navigation guard, for both the create and
// the edit flavor of the form.
package compose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bulletin/internal/client/api"
	"bulletin/internal/client/draft"
	"bulletin/internal/client/imaging"
	"bulletin/internal/client/navguard"
	"bulletin/internal/pkg/imagex"
)

// Field limits mirror the server's; submission re-checks them so the server
// round-trip is spent only on requests that can succeed.
const (
	MaxTitleLen   = 100
	MaxContentLen = 5000
)

const listPath = "/boards"

// fallbackCategories stands in when the category endpoint is unreachable.
// The set matches what the server has shipped with from the start, so a
// silent fallback beats surfacing an error for a lookup the user never asked
// for.
var fallbackCategories = map[string]string{
	"NOTICE": "공지",
	"FREE":   "자유",
	"QNA":    "Q&A",
	"ETC":    "기타",
}

var categoryOrder = []string{"NOTICE", "FREE", "QNA", "ETC"}

const (
	msgTitleRequired   = "제목을 입력해주세요."
	msgTitleTooLong    = "제목은 100자 이내로 입력해주세요."
	msgContentRequired = "내용을 입력해주세요."
	msgContentTooLong  = "내용은 5000자 이내로 입력해주세요."
	msgBadCategory     = "카테고리를 선택해주세요."

	msgDraftSaved     = "임시저장되었습니다."
	msgDraftDuplicate = "동일한 내용의 임시저장 글이 이미 있습니다."

	msgImageTooLarge  = "이미지 용량이 너무 큽니다."
	msgForbidden      = "권한이 없습니다."
	msgServerError    = "서버 오류가 발생했습니다. 잠시 후 다시 시도해주세요."
	msgRequestFailed  = "요청에 실패했습니다."
	msgPostLoadFailed = "게시글을 불러올 수 없습니다."
)

type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

// CategoryOption is one entry of the category picker, in display order.
type CategoryOption struct {
	Key   string
	Label string
}

// Deps are the collaborators a Form needs from the application root.
type Deps struct {
	API         PostAPI
	Drafts      *draft.Store
	Gate        *navguard.Gate
	Navigate    func(path string)
	PushHistory func()
	Logger      *slog.Logger

	// Imaging overrides the intake limits; nil means the defaults.
	Imaging *imaging.Config
}

// Form is one mounted instance of the post form. It is not safe for
// concurrent use; the shell drives it from a single loop.
type Form struct {
	mode   Mode
	postID int64
	deps   Deps
	now    func() time.Time

	intake *imaging.Intake
	guard  *navguard.Guard
	back   *navguard.BackVector

	title    string
	content  string
	category draft.Category

	categories map[string]string
	drafts     []draft.Draft
	snapshot   navguard.Snapshot

	titleErr   string
	contentErr string
	submitErr  string
	notice     string

	// pendingExit is the destination of a route navigation the gate
	// blocked; leaving via the prompt resumes it. Empty for back-button
	// exits, which fall back to the list.
	pendingExit string
}

func NewCreateForm(deps Deps) *Form {
	return newForm(ModeCreate, 0, deps)
}

func NewEditForm(deps Deps, postID int64) *Form {
	return newForm(ModeEdit, postID, deps)
}

func newForm(mode Mode, postID int64, deps Deps) *Form {
	cfg := imaging.DefaultConfig()
	if deps.Imaging != nil {
		cfg = *deps.Imaging
	}
	return &Form{
		mode:     mode,
		postID:   postID,
		deps:     deps,
		now:      time.Now,
		intake:   imaging.NewIntake(cfg),
		category: draft.CategoryFree,
	}
}

// Mount loads server state and arms the navigation guard. In edit mode a
// record that cannot be loaded sends the user back to the list; there is no
// form to show without it.
func (f *Form) Mount(ctx context.Context) error {
	f.loadCategories(ctx)

	switch f.mode {
	case ModeCreate:
		drafts, err := f.deps.Drafts.Load()
		if err != nil {
			f.deps.Logger.Warn("loading drafts failed", "error", err)
		}
		f.drafts = drafts
		f.guard = navguard.NewGuard(navguard.CreatePolicy{}, f.formState)

	case ModeEdit:
		detail, err := f.deps.API.GetPostDetail(ctx, f.postID)
		if err != nil {
			f.deps.Logger.Warn("loading post for edit failed", "post_id", f.postID, "error", err)
			f.notice = msgPostLoadFailed
			f.deps.Navigate(listPath)
			return ErrPostUnavailable
		}

		f.title = detail.Title
		f.content = detail.Content
		f.category = draft.Category(detail.Category)
		hadImage := f.adoptServerImage(ctx, detail.ImageURL)

		f.snapshot = navguard.Snapshot{
			Title:    detail.Title,
			Content:  detail.Content,
			Category: draft.Category(detail.Category),
			HadImage: hadImage,
		}
		f.guard = navguard.NewGuard(navguard.EditPolicy{Snapshot: f.snapshot}, f.formState)
	}

	f.back = navguard.NewBackVector(f.guard, f.deps.PushHistory)
	f.deps.Gate.Register(navguard.RouteVector(f.guard, func(target string) {
		f.pendingExit = target
	}))
	return nil
}

// Unmount releases the navigation gate slot. The guard itself dies with the
// form.
func (f *Form) Unmount() {
	f.deps.Gate.Unregister()
}

func (f *Form) loadCategories(ctx context.Context) {
	categories, err := f.deps.API.GetCategories(ctx)
	if err != nil || len(categories) == 0 {
		if err != nil {
			f.deps.Logger.Debug("category fetch failed, using built-in set", "error", err)
		}
		categories = fallbackCategories
	}
	f.categories = categories
}

// adoptServerImage decides whether the record genuinely has an image. The
// server answers imageless posts with a stand-in URL, so the bytes are
// fetched and checked against the 1x1 placeholder convention rather than
// trusting the URL's presence.
func (f *Form) adoptServerImage(ctx context.Context, imageURL string) bool {
	if imageURL == "" {
		return false
	}
	data, err := f.deps.API.FetchImage(ctx, imageURL)
	if err == nil && imagex.IsPlaceholder(data) {
		return false
	}
	if err != nil {
		f.deps.Logger.Debug("image prefetch failed, keeping server preview", "error", err)
	}
	f.intake.SetServerPreview(imageURL)
	return true
}

func (f *Form) SetTitle(v string) {
	f.title = v
	f.back.Arm()
}

func (f *Form) SetContent(v string) {
	f.content = v
	f.back.Arm()
}

func (f *Form) SetCategory(v draft.Category) {
	f.category = v
	f.back.Arm()
}

// AttachFile runs the candidate through the intake pipeline.
func (f *Form) AttachFile(file imaging.File) {
	f.intake.Candidate(file)
	f.back.Arm()
}

func (f *Form) RemoveImage() {
	f.intake.Remove()
	f.back.Arm()
}

// ApplyDraft copies a saved draft into the fields. The stored entry is left
// alone; it only disappears when deleted explicitly or by expiry.
func (f *Form) ApplyDraft(d draft.Draft) {
	f.title = d.Title
	f.content = d.Content
	f.category = d.Category
	f.back.Arm()
}

// SaveDraft stores the current fields as a draft. A duplicate leaves storage
// untouched and tells the user so.
func (f *Form) SaveDraft() error {
	err := f.deps.Drafts.Save(draft.Draft{
		Title:     f.title,
		Content:   f.content,
		Category:  f.category,
		Timestamp: f.now().UnixMilli(),
	})
	if err != nil {
		if errors.Is(err, draft.ErrDuplicate) {
			f.notice = msgDraftDuplicate
		}
		return err
	}

	f.notice = msgDraftSaved
	f.reloadDrafts()
	return nil
}

func (f *Form) DeleteDraft(ts int64) error {
	if err := f.deps.Drafts.Delete(ts); err != nil {
		return err
	}
	f.reloadDrafts()
	return nil
}

func (f *Form) reloadDrafts() {
	drafts, err := f.deps.Drafts.Load()
	if err != nil {
		f.deps.Logger.Warn("reloading drafts failed", "error", err)
		return
	}
	f.drafts = drafts
}

// Submit validates and sends the post. On success the guard is latched
// before navigating, so the departure itself cannot re-raise the exit
// prompt.
func (f *Form) Submit(ctx context.Context) error {
	if !f.validate() {
		return ErrValidation
	}

	data := api.PostData{
		Title:    strings.TrimSpace(f.title),
		Content:  f.content,
		Category: string(f.category),
	}
	file := f.submitFile()

	var target string
	switch f.mode {
	case ModeCreate:
		id, err := f.deps.API.CreatePost(ctx, data, file)
		if err != nil {
			f.submitErr = submitErrorMessage(err)
			return err
		}
		target = detailPath(id)
	case ModeEdit:
		if err := f.deps.API.UpdatePost(ctx, f.postID, data, file); err != nil {
			f.submitErr = submitErrorMessage(err)
			return err
		}
		target = detailPath(f.postID)
	}

	f.guard.MarkSubmitted()
	f.deps.Navigate(target)
	return nil
}

func (f *Form) validate() bool {
	f.titleErr = ""
	f.contentErr = ""
	f.submitErr = ""

	title := strings.TrimSpace(f.title)
	switch {
	case title == "":
		f.titleErr = msgTitleRequired
	case len([]rune(title)) > MaxTitleLen:
		f.titleErr = msgTitleTooLong
	}

	content := strings.TrimSpace(f.content)
	switch {
	case content == "":
		f.contentErr = msgContentRequired
	case len([]rune(f.content)) > MaxContentLen:
		f.contentErr = msgContentTooLong
	}

	if _, ok := f.categories[string(f.category)]; !ok {
		f.submitErr = msgBadCategory
	}

	// Selected files already passed the pipeline; this catches state that
	// was mutated around it.
	if msg := f.intake.Revalidate(); msg != "" {
		f.submitErr = msg
	}

	return f.titleErr == "" && f.contentErr == "" && f.submitErr == ""
}

// submitFile picks the upload payload. In edit mode a deleted original is
// expressed by uploading the 1x1 transparent placeholder, which the server
// reads as "drop the stored image".
func (f *Form) submitFile() *imaging.File {
	if file := f.intake.Selected(); file != nil {
		return file
	}
	if f.mode == ModeEdit && f.intake.DeletedServerImage() && f.intake.Preview() == "" {
		return &imaging.File{Name: "placeholder.png", Data: imagex.TransparentPlaceholder()}
	}
	return nil
}

func submitErrorMessage(err error) string {
	switch status := api.StatusOf(err); {
	case status == http.StatusRequestEntityTooLarge:
		return msgImageTooLarge
	case status == http.StatusForbidden:
		return msgForbidden
	case status >= 500:
		return msgServerError
	}
	if msg := api.MessageOf(err); msg != "" {
		return msg
	}
	return msgRequestFailed
}

// ExitCancel keeps the user on the form with their work intact. The blocked
// destination is forgotten; a later exit names its own.
func (f *Form) ExitCancel() {
	f.pendingExit = ""
	f.guard.DismissPrompt()
}

// ExitDiscard leaves without saving, resuming the navigation the guard
// intercepted. The latch makes the departure final even though the fields
// still hold unsaved work.
func (f *Form) ExitDiscard() {
	f.guard.MarkSubmitted()
	f.guard.DismissPrompt()
	f.deps.Navigate(f.exitTarget())
}

// ExitSave stores a draft and then leaves. Only the create form offers it;
// a duplicate draft keeps the prompt open so the user can pick another way
// out.
func (f *Form) ExitSave() error {
	if f.mode != ModeCreate {
		return ErrSaveAndExitUnavailable
	}
	if err := f.SaveDraft(); err != nil {
		return err
	}
	f.guard.MarkSubmitted()
	f.guard.DismissPrompt()
	f.deps.Navigate(f.exitTarget())
	return nil
}

func (f *Form) exitTarget() string {
	target := f.pendingExit
	f.pendingExit = ""
	if target == "" {
		return listPath
	}
	return target
}

// OnBack handles a host back navigation and reports whether it may proceed.
// A back exit has no forward destination, so any blocked route target is
// dropped in favor of the list fallback.
func (f *Form) OnBack() bool {
	proceed := f.back.OnPop()
	if !proceed {
		f.pendingExit = ""
	}
	return proceed
}

// ShouldConfirmClose answers the application-close hook: whether quitting
// now would lose work.
func (f *Form) ShouldConfirmClose() bool {
	return navguard.NewUnloadVector(f.guard).ShouldPrompt()
}

func (f *Form) Mode() Mode               { return f.mode }
func (f *Form) Title() string            { return f.title }
func (f *Form) Content() string          { return f.content }
func (f *Form) Category() draft.Category { return f.category }
func (f *Form) Drafts() []draft.Draft    { return f.drafts }
func (f *Form) Intake() *imaging.Intake  { return f.intake }
func (f *Form) TitleErr() string         { return f.titleErr }
func (f *Form) ContentErr() string       { return f.contentErr }
func (f *Form) SubmitErr() string        { return f.submitErr }
func (f *Form) PromptVisible() bool      { return f.guard.PromptVisible() }
func (f *Form) Dirty() bool              { return f.guard.Dirty() }

// Notice returns and clears the one-shot status message.
func (f *Form) Notice() string {
	n := f.notice
	f.notice = ""
	return n
}

// Categories lists the picker options in a stable order, known keys first.
func (f *Form) Categories() []CategoryOption {
	opts := make([]CategoryOption, 0, len(f.categories))
	seen := make(map[string]bool, len(f.categories))
	for _, key := range categoryOrder {
		if label, ok := f.categories[key]; ok {
			opts = append(opts, CategoryOption{Key: key, Label: label})
			seen[key] = true
		}
	}
	for key, label := range f.categories {
		if !seen[key] {
			opts = append(opts, CategoryOption{Key: key, Label: label})
		}
	}
	return opts
}

func (f *Form) formState() navguard.FormState {
	return navguard.FormState{
		Title:        f.title,
		Content:      f.content,
		Category:     f.category,
		FileSelected: f.intake.Selected() != nil,
		Preview:      f.intake.Preview(),
	}
}

func detailPath(id int64) string {
	return fmt.Sprintf("/boards/%d", id)
}
