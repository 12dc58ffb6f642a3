// Package cli is the terminal front end of the bulletin client. It owns the
// routing state (list, detail, compose) and drives the form, draft store,
// and navigation guard from a read-eval-print loop.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"bulletin/internal/client/api"
	"bulletin/internal/client/compose"
	"bulletin/internal/client/config"
	"bulletin/internal/client/draft"
	"bulletin/internal/client/imaging"
	"bulletin/internal/client/navguard"
	"bulletin/internal/client/session"
	"bulletin/internal/client/storage"
	"bulletin/internal/pkg/imagex"
)

// routeAbsorber is the synthetic history entry the back guard pushes; it is
// never shown and never navigated to.
const routeAbsorber = "#absorber"

const routeList = "/boards"

type App struct {
	cfg    *config.Config
	log    *slog.Logger
	sess   *session.Session
	api    *api.Client
	drafts *draft.Store
	gate   *navguard.Gate

	reader *bufio.Reader
	out    io.Writer

	route   string
	history []string
	form    *compose.Form
	page    int
}

func NewApp(cfg *config.Config, log *slog.Logger) (*App, error) {
	store, err := storage.OpenFile(filepath.Join(cfg.DataDir, "state.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to open client storage: %w", err)
	}

	sess := session.New()
	return &App{
		cfg:    cfg,
		log:    log,
		sess:   sess,
		api:    api.New(cfg.ServerURL, sess, log),
		drafts: draft.NewStore(store),
		gate:   navguard.NewGate(),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		route:  routeList,
		page:   1,
	}, nil
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format+"\n", args...)
}

// goTo is the user-initiated navigation path: it asks the gate first, and a
// blocked attempt turns into the exit-confirmation dialog.
func (a *App) goTo(ctx context.Context, path string) {
	if !a.gate.Allowed(path) {
		a.resolveExit(ctx)
		return
	}
	a.setRoute(path)
}

// setRoute switches routes unconditionally. The form's own navigation
// (submit, exit resolution) lands here, past the gate it already cleared.
func (a *App) setRoute(path string) {
	if a.form != nil && path != a.route {
		a.form.Unmount()
		a.form = nil
	}
	a.history = append(a.history, a.route)
	a.route = path
}

func (a *App) pushAbsorber() {
	a.history = append(a.history, routeAbsorber)
}

// back mirrors the browser back button: on a guarded form the absorber takes
// the hit and the dialog opens; otherwise the previous route is restored.
func (a *App) back(ctx context.Context) {
	if a.form != nil && !a.form.OnBack() {
		a.resolveExit(ctx)
		return
	}

	for len(a.history) > 0 {
		top := a.history[len(a.history)-1]
		a.history = a.history[:len(a.history)-1]
		if top == routeAbsorber {
			continue
		}
		if a.form != nil {
			a.form.Unmount()
			a.form = nil
		}
		a.route = top
		a.printf("← %s", top)
		return
	}
	a.printf("이전 화면이 없습니다.")
}

// resolveExit runs the three-way dialog behind every blocked exit. It
// returns when the prompt is resolved: stay, leave without saving, or (when
// writing a new post) save a draft and leave.
func (a *App) resolveExit(ctx context.Context) {
	form := a.form
	if form == nil {
		return
	}

	for form.PromptVisible() {
		a.printf("작성 중인 내용이 있습니다. 어떻게 할까요?")
		a.printf("  1) 계속 작성")
		a.printf("  2) 저장하지 않고 나가기")
		if form.Mode() == compose.ModeCreate {
			a.printf("  3) 임시저장 후 나가기")
		}

		choice, err := readLine(a.reader, a.out, "> ")
		if err != nil {
			form.ExitCancel()
			return
		}

		switch choice {
		case "1":
			form.ExitCancel()
		case "2":
			form.ExitDiscard()
		case "3":
			if form.Mode() != compose.ModeCreate {
				a.printf("수정 화면에서는 임시저장할 수 없습니다.")
				continue
			}
			if err := form.ExitSave(); err != nil {
				if msg := form.Notice(); msg != "" {
					a.printf("%s", msg)
				}
				continue
			}
			a.printf("%s", form.Notice())
		default:
			a.printf("1, 2, 3 중에서 선택해주세요.")
		}
	}
}

func (a *App) signup(ctx context.Context) {
	username, err := readLine(a.reader, a.out, "아이디: ")
	if err != nil {
		return
	}
	name, err := readLine(a.reader, a.out, "이름: ")
	if err != nil {
		return
	}
	password, err := readSecret(a.reader, a.out, "비밀번호: ")
	if err != nil {
		return
	}

	if _, err := a.api.Signup(ctx, username, password, name); err != nil {
		a.printf("가입 실패: %s", apiMessage(err))
		return
	}
	a.printf("가입되었습니다. login 명령으로 로그인하세요.")
}

func (a *App) login(ctx context.Context) {
	username, err := readLine(a.reader, a.out, "아이디: ")
	if err != nil {
		return
	}
	password, err := readSecret(a.reader, a.out, "비밀번호: ")
	if err != nil {
		return
	}

	if err := a.api.Signin(ctx, username, password); err != nil {
		a.printf("로그인 실패: %s", apiMessage(err))
		return
	}
	a.printf("%s 님, 환영합니다.", a.sess.Username())
}

func (a *App) logout() {
	a.sess.Clear()
	a.printf("로그아웃되었습니다.")
}

func (a *App) list(ctx context.Context, page int) {
	res, err := a.api.ListPosts(ctx, page, a.cfg.PageSize)
	if err != nil {
		a.printf("목록을 불러오지 못했습니다: %s", apiMessage(err))
		return
	}
	a.page = res.Page

	if len(res.Items) == 0 {
		a.printf("게시글이 없습니다.")
		return
	}
	for _, item := range res.Items {
		mark := " "
		if item.HasImage {
			mark = "🖼"
		}
		a.printf("%5d  [%s] %s %s  (%s)",
			item.ID, categoryLabel(item.Category), item.Title, mark,
			item.CreatedAt.Format("2006-01-02 15:04"))
	}
	a.printf("— %d/%d 페이지, 총 %d건 —", res.Page, res.TotalPages, res.Total)
}

func (a *App) show(ctx context.Context, id int64) {
	path := fmt.Sprintf("/boards/%d", id)
	a.goTo(ctx, path)
	if a.route != path {
		// Navigation was blocked or redirected; the dialog already ran.
		return
	}

	detail, err := a.api.GetPostDetail(ctx, id)
	if err != nil {
		a.printf("게시글을 불러오지 못했습니다: %s", apiMessage(err))
		return
	}

	a.printf("[%s] %s", categoryLabel(detail.Category), detail.Title)
	a.printf("작성일 %s", detail.CreatedAt.Format("2006-01-02 15:04"))
	a.printf("")
	a.printf("%s", detail.Content)
	if detail.ImageURL != "" {
		if data, err := a.api.FetchImage(ctx, detail.ImageURL); err == nil && !imagex.IsPlaceholder(data) {
			a.printf("")
			a.printf("첨부 이미지: %s (%d바이트)", detail.ImageURL, len(data))
		}
	}
}

func (a *App) openCreateForm(ctx context.Context) {
	if !a.sess.LoggedIn() {
		a.printf("로그인이 필요합니다.")
		return
	}

	form := compose.NewCreateForm(a.formDeps())
	if err := form.Mount(ctx); err != nil {
		a.printf("글쓰기 화면을 열 수 없습니다.")
		return
	}
	a.setRoute("/boards/new")
	a.form = form
	a.printf("새 글 작성을 시작합니다. help 로 명령을 확인하세요.")
	if n := len(form.Drafts()); n > 0 {
		a.printf("임시저장된 글이 %d건 있습니다. drafts 명령으로 확인하세요.", n)
	}
}

func (a *App) openEditForm(ctx context.Context, id int64) {
	if !a.sess.LoggedIn() {
		a.printf("로그인이 필요합니다.")
		return
	}

	form := compose.NewEditForm(a.formDeps(), id)
	if err := form.Mount(ctx); err != nil {
		if msg := form.Notice(); msg != "" {
			a.printf("%s", msg)
		}
		return
	}
	a.setRoute(fmt.Sprintf("/boards/%d/edit", id))
	a.form = form
	a.printf("글 수정을 시작합니다. help 로 명령을 확인하세요.")
}

func (a *App) formDeps() compose.Deps {
	return compose.Deps{
		API:         a.api,
		Drafts:      a.drafts,
		Gate:        a.gate,
		Navigate:    a.setRoute,
		PushHistory: a.pushAbsorber,
		Logger:      a.log,
	}
}

func (a *App) attachImage(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		a.printf("파일을 읽을 수 없습니다: %s", path)
		return
	}

	a.form.AttachFile(imaging.File{Name: filepath.Base(path), Data: data})
	intake := a.form.Intake()
	if msg := intake.Err(); msg != "" {
		a.printf("%s", msg)
		return
	}
	if file := intake.Selected(); file != nil {
		a.printf("이미지 첨부됨: %s (%d바이트)", file.Name, len(file.Data))
	}
}

func (a *App) showDrafts() {
	drafts := a.form.Drafts()
	if len(drafts) == 0 {
		a.printf("임시저장된 글이 없습니다.")
		return
	}
	for i, d := range drafts {
		a.printf("%2d) [%s] %s (%s)", i+1, categoryLabel(string(d.Category)),
			firstLine(d.Title), draftAge(d))
	}
}

// deletePost asks before deleting. The server enforces authorship; a 403
// surfaces as its error message.
func (a *App) deletePost(ctx context.Context, id int64) {
	if !a.sess.LoggedIn() {
		a.printf("로그인이 필요합니다.")
		return
	}

	answer, err := readLine(a.reader, a.out, fmt.Sprintf("%d번 글을 삭제할까요? (y/N) ", id))
	if err != nil || !strings.EqualFold(answer, "y") {
		return
	}

	if err := a.api.DeletePost(ctx, id); err != nil {
		a.printf("삭제하지 못했습니다: %s", apiMessage(err))
		return
	}
	a.printf("삭제되었습니다.")
}

func (a *App) submit(ctx context.Context) {
	if err := a.form.Submit(ctx); err != nil {
		form := a.form
		if form == nil {
			return
		}
		for _, msg := range []string{form.TitleErr(), form.ContentErr(), form.SubmitErr()} {
			if msg != "" {
				a.printf("%s", msg)
			}
		}
		return
	}
	a.printf("등록되었습니다.")
}

func apiMessage(err error) string {
	if msg := api.MessageOf(err); msg != "" {
		return msg
	}
	return "서버에 연결할 수 없습니다."
}

var categoryLabels = map[string]string{
	"NOTICE": "공지",
	"FREE":   "자유",
	"QNA":    "Q&A",
	"ETC":    "기타",
}

func categoryLabel(key string) string {
	if label, ok := categoryLabels[key]; ok {
		return label
	}
	return key
}

func draftAge(d draft.Draft) string {
	age := d.Age(timeNow())
	switch {
	case age < time.Minute:
		return "방금 전"
	case age < time.Hour:
		return fmt.Sprintf("%d분 전", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%d시간 전", int(age.Hours()))
	default:
		return fmt.Sprintf("%d일 전", int(age.Hours()/24))
	}
}

// timeNow is a test seam.
var timeNow = time.Now

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil && id > 0
}
