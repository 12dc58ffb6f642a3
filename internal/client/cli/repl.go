package cli

import (
	"context"
	"strings"

	"bulletin/internal/client/draft"
)

// Run starts the event watcher and the command loop, returning when the
// user quits or stdin closes.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.watchEvents(ctx, func(ev event) {
		if ev.Event == "post_created" {
			a.printf("새 글이 등록되었습니다: %s", ev.Payload.Title)
		}
	})

	a.printf("bulletin %s 에 연결합니다. help 를 입력하면 명령을 볼 수 있습니다.", a.cfg.ServerURL)
	a.list(ctx, 1)

	for {
		prompt := "board> "
		if a.form != nil {
			prompt = "write> "
		}

		line, err := readLine(a.reader, a.out, prompt)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			if a.confirmQuit() {
				a.printf("안녕히 가세요.")
				return
			}
			continue
		}

		if a.form != nil {
			a.dispatchCompose(ctx, cmd, args, line)
		} else {
			a.dispatchRoot(ctx, cmd, args)
		}
	}
}

// confirmQuit is the application-close guard: quitting with unsaved work
// needs an explicit yes.
func (a *App) confirmQuit() bool {
	if a.form == nil || !a.form.ShouldConfirmClose() {
		return true
	}
	answer, err := readLine(a.reader, a.out, "작성 중인 내용이 사라집니다. 종료할까요? (y/N) ")
	if err != nil {
		return true
	}
	return strings.EqualFold(answer, "y")
}

func (a *App) dispatchRoot(ctx context.Context, cmd string, args []string) {
	switch cmd {
	case "help":
		a.printf("명령: list [페이지], next, prev, show <번호>, write, edit <번호>, delete <번호>,")
		a.printf("      signup, login, logout, back, exit")

	case "signup":
		a.signup(ctx)

	case "login":
		a.login(ctx)

	case "logout":
		a.logout()

	case "l", "list":
		page := 1
		if len(args) > 0 {
			if n, ok := parseID(args[0]); ok {
				page = int(n)
			}
		}
		a.goTo(ctx, routeList)
		if a.route != routeList {
			return
		}
		a.list(ctx, page)

	case "next":
		a.list(ctx, a.page+1)

	case "prev":
		if a.page > 1 {
			a.list(ctx, a.page-1)
		}

	case "show":
		if len(args) == 0 {
			a.printf("사용법: show <번호>")
			return
		}
		id, ok := parseID(args[0])
		if !ok {
			a.printf("올바른 글 번호가 아닙니다.")
			return
		}
		a.show(ctx, id)

	case "write":
		a.openCreateForm(ctx)

	case "edit":
		if len(args) == 0 {
			a.printf("사용법: edit <번호>")
			return
		}
		id, ok := parseID(args[0])
		if !ok {
			a.printf("올바른 글 번호가 아닙니다.")
			return
		}
		a.openEditForm(ctx, id)

	case "delete":
		if len(args) == 0 {
			a.printf("사용법: delete <번호>")
			return
		}
		id, ok := parseID(args[0])
		if !ok {
			a.printf("올바른 글 번호가 아닙니다.")
			return
		}
		a.deletePost(ctx, id)

	case "back", "b":
		a.back(ctx)

	default:
		a.printf("알 수 없는 명령입니다: %s", cmd)
	}
}

func (a *App) dispatchCompose(ctx context.Context, cmd string, args []string, line string) {
	form := a.form

	switch cmd {
	case "help":
		a.printf("명령: title <제목>, content, category <%s>, image <경로>, rmimage,", categoryKeys())
		a.printf("      preview, drafts, apply <번호>, deldraft <번호>, savedraft, submit, back, exit")

	case "title":
		form.SetTitle(strings.TrimSpace(strings.TrimPrefix(line, "title")))

	case "content":
		content, err := readMultiline(a.reader, a.out, "내용을 입력하세요")
		if err != nil {
			return
		}
		form.SetContent(content)

	case "category":
		if len(args) == 0 {
			a.printf("사용법: category <%s>", categoryKeys())
			return
		}
		form.SetCategory(draft.Category(strings.ToUpper(args[0])))

	case "image":
		if len(args) == 0 {
			a.printf("사용법: image <파일 경로>")
			return
		}
		a.attachImage(strings.TrimSpace(strings.TrimPrefix(line, "image")))

	case "rmimage":
		form.RemoveImage()
		a.printf("이미지를 제거했습니다.")

	case "preview":
		a.printf("[%s] %s", categoryLabel(string(form.Category())), form.Title())
		a.printf("%s", form.Content())
		if form.Intake().Preview() != "" {
			a.printf("(이미지 첨부됨)")
		}

	case "drafts":
		a.showDrafts()

	case "apply":
		if d, ok := a.pickDraft(args); ok {
			form.ApplyDraft(d)
			a.printf("임시저장 글을 불러왔습니다.")
		}

	case "deldraft":
		if d, ok := a.pickDraft(args); ok {
			if err := form.DeleteDraft(d.Timestamp); err != nil {
				a.printf("삭제하지 못했습니다.")
				return
			}
			a.printf("임시저장 글을 삭제했습니다.")
		}

	case "savedraft":
		if err := form.SaveDraft(); err != nil {
			if msg := form.Notice(); msg != "" {
				a.printf("%s", msg)
			}
			return
		}
		a.printf("%s", form.Notice())

	case "submit":
		a.submit(ctx)

	case "back", "b":
		a.back(ctx)

	// Leaving the form by navigating somewhere else goes through the gate,
	// which raises the exit dialog while the form is dirty.
	case "list", "l", "show":
		a.dispatchRoot(ctx, cmd, args)

	default:
		a.printf("알 수 없는 명령입니다: %s", cmd)
	}
}

// pickDraft resolves a 1-based index argument against the form's draft list.
func (a *App) pickDraft(args []string) (draft.Draft, bool) {
	drafts := a.form.Drafts()
	if len(args) == 0 {
		a.printf("임시저장 글 번호를 지정하세요. drafts 로 목록을 볼 수 있습니다.")
		return draft.Draft{}, false
	}
	n, ok := parseID(args[0])
	if !ok || int(n) > len(drafts) {
		a.printf("올바른 임시저장 글 번호가 아닙니다.")
		return draft.Draft{}, false
	}
	return drafts[n-1], true
}

func categoryKeys() string {
	return "NOTICE|FREE|QNA|ETC"
}
