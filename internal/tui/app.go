package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matheuskafuri/quill/internal/browser"
	"github.com/matheuskafuri/quill/internal/collection"
	"github.com/matheuskafuri/quill/internal/feed"
	"github.com/matheuskafuri/quill/internal/post"
	"github.com/matheuskafuri/quill/internal/related"
	"github.com/matheuskafuri/quill/internal/sidebar"
	"github.com/matheuskafuri/quill/internal/store"
)

type focusPane int

const (
	focusList focusPane = iota
	focusPreview
)

type mode int

const (
	modeHome mode = iota
	modeNormal
	modeSearch
	modeFilter
	modeHelp
)

// Store is the read side of the post store used by the reader.
type Store interface {
	Posts(opts store.QueryOpts) ([]post.Post, error)
}

// Importer pulls remote feeds into the store.
type Importer interface {
	Run(ctx context.Context) (feed.FetchResult, error)
}

var sortCycle = []collection.SortField{
	collection.SortDate,
	collection.SortTitle,
	collection.SortPopularity,
	collection.SortReadingTime,
}

type App struct {
	store         Store
	importer      Importer
	baseURL       string
	relatedCount  int
	updateVersion string
	since         time.Time

	pool   []post.Post
	params collection.ViewParams
	page   collection.Page
	home   sidebar.Sidebar
	cursor int
	focus  focusPane
	mode   mode

	width  int
	height int

	searchInput textinput.Model
	spinner     spinner.Model
	filterBar   filterBar

	refreshing    bool
	previewScroll int
	currentDate   string
	err           error
}

// RunOpts holds all parameters for launching the TUI.
type RunOpts struct {
	Store    Store
	Importer Importer // nil disables the import key
	PageSize int
	// RelatedCount is the number of related posts shown in the preview.
	RelatedCount  int
	BaseURL       string
	UpdateVersion string
	Since         time.Time
	BrowseMode    bool
}

func NewApp(opts RunOpts) *App {
	ti := textinput.New()
	ti.Placeholder = "Search posts..."
	ti.Prompt = searchPromptStyle.Render("/ ")
	ti.CharLimit = 100

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	startMode := modeHome
	if opts.BrowseMode {
		startMode = modeNormal
	}
	relatedCount := opts.RelatedCount
	if relatedCount <= 0 {
		relatedCount = related.DefaultLimit
	}

	return &App{
		store:         opts.Store,
		importer:      opts.Importer,
		baseURL:       opts.BaseURL,
		relatedCount:  relatedCount,
		updateVersion: opts.UpdateVersion,
		since:         opts.Since,
		params: collection.ViewParams{
			Sort:     collection.SortDate,
			Page:     1,
			PageSize: opts.PageSize,
		},
		filterBar:   newFilterBar(nil),
		searchInput: ti,
		spinner:     sp,
		currentDate: time.Now().Format("Jan 2"),
		mode:        startMode,
	}
}

func (a *App) Init() tea.Cmd {
	return a.loadPostsCmd()
}

func (a *App) loadPostsCmd() tea.Cmd {
	st := a.store
	since := a.since
	return func() tea.Msg {
		posts, err := st.Posts(store.QueryOpts{Status: post.Published})
		if err != nil {
			return loadErrMsg{err: err}
		}
		if !since.IsZero() {
			kept := posts[:0]
			for _, p := range posts {
				if p.EffectiveDate().After(since) {
					kept = append(kept, p)
				}
			}
			posts = kept
		}
		return postsLoadedMsg{posts: posts}
	}
}

func (a *App) importCmd() tea.Cmd {
	im := a.importer
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		result, err := im.Run(ctx)
		return importDoneMsg{imported: len(result.Posts), failed: len(result.Errors), err: err}
	}
}

func openBrowserCmd(url string) tea.Cmd {
	return func() tea.Msg {
		if err := browser.Open(url); err != nil {
			return loadErrMsg{err: err}
		}
		return nil
	}
}

// postURL returns where a post can be read: its source link for imported
// posts, otherwise its page under baseURL.
func postURL(p post.Post, baseURL string) string {
	if p.Link != "" {
		return p.Link
	}
	if baseURL == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/posts/" + p.Slug
}

// applyView recomputes the visible page from the pool and the current
// view parameters.
func (a *App) applyView() {
	a.params.Category = a.filterBar.active
	a.page = collection.View(a.pool, a.params)
	a.params.Page = a.page.Page
	if a.cursor >= len(a.page.Posts) {
		a.cursor = max(0, len(a.page.Posts)-1)
	}
	a.previewScroll = 0
}

func (a *App) selected() *post.Post {
	if a.cursor < len(a.page.Posts) {
		return &a.page.Posts[a.cursor]
	}
	return nil
}

func nextSort(f collection.SortField) collection.SortField {
	for i, s := range sortCycle {
		if s == f {
			return sortCycle[(i+1)%len(sortCycle)]
		}
	}
	return sortCycle[0]
}

// effectiveOrder resolves OrderDefault to the field's natural direction.
func effectiveOrder(f collection.SortField, o collection.SortOrder) collection.SortOrder {
	if o != collection.OrderDefault {
		return o
	}
	if f == collection.SortTitle {
		return collection.OrderAsc
	}
	return collection.OrderDesc
}

func flipOrder(f collection.SortField, o collection.SortOrder) collection.SortOrder {
	if effectiveOrder(f, o) == collection.OrderAsc {
		return collection.OrderDesc
	}
	return collection.OrderAsc
}

func sortLabel(f collection.SortField, o collection.SortOrder) string {
	name := string(f)
	if f == collection.SortNone {
		name = "default"
	}
	if effectiveOrder(f, o) == collection.OrderAsc {
		return name + " ↑"
	}
	return name + " ↓"
}

func categoriesOf(sb sidebar.Sidebar) []post.Category {
	cats := make([]post.Category, len(sb.Categories))
	for i, c := range sb.Categories {
		cats[i] = c.Category
	}
	return cats
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		// Clear sticky error on any keypress
		a.err = nil
		return a.handleKey(msg)

	case postsLoadedMsg:
		a.pool = msg.posts
		a.home = sidebar.Build(a.pool, sidebar.Options{})
		a.filterBar.setCategories(categoriesOf(a.home))
		a.applyView()
		return a, nil

	case loadErrMsg:
		a.err = msg.err
		return a, nil

	case importDoneMsg:
		a.refreshing = false
		if msg.err != nil {
			a.err = msg.err
		} else if msg.failed > 0 {
			a.err = fmt.Errorf("imported %d posts, %d sources failed", msg.imported, msg.failed)
		}
		return a, a.loadPostsCmd()

	case spinner.TickMsg:
		if a.refreshing {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	switch a.mode {
	case modeHome:
		return a.handleHomeKey(msg)
	case modeSearch:
		return a.handleSearchKey(msg)
	case modeFilter:
		return a.handleFilterKey(msg)
	case modeHelp:
		if msg.String() == "?" || msg.String() == "esc" || msg.String() == "q" {
			a.mode = modeNormal
		}
		return a, nil
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "j", "down":
		if a.focus == focusList && a.cursor < len(a.page.Posts)-1 {
			a.cursor++
			a.previewScroll = 0
		} else if a.focus == focusPreview {
			a.previewScroll++
		}
	case "k", "up":
		if a.focus == focusList && a.cursor > 0 {
			a.cursor--
			a.previewScroll = 0
		} else if a.focus == focusPreview && a.previewScroll > 0 {
			a.previewScroll--
		}
	case "tab":
		if a.focus == focusList {
			a.focus = focusPreview
		} else {
			a.focus = focusList
		}
	case "n", "right":
		if a.page.HasNext() {
			a.params.Page++
			a.cursor = 0
			a.applyView()
		}
	case "p", "left":
		if a.page.HasPrev() {
			a.params.Page--
			a.cursor = 0
			a.applyView()
		}
	case "s":
		a.params.Sort = nextSort(a.params.Sort)
		a.params.Order = collection.OrderDefault
		a.params.Page = 1
		a.cursor = 0
		a.applyView()
	case "S":
		a.params.Order = flipOrder(a.params.Sort, a.params.Order)
		a.params.Page = 1
		a.cursor = 0
		a.applyView()
	case "o", "enter":
		if p := a.selected(); p != nil {
			if url := postURL(*p, a.baseURL); url != "" {
				return a, openBrowserCmd(url)
			}
		}
	case "/":
		a.mode = modeSearch
		a.searchInput.SetValue(a.params.Search)
		a.searchInput.Focus()
		return a, textinput.Blink
	case "f":
		a.mode = modeFilter
		a.filterBar.filterMode = true
	case "r":
		if a.importer != nil && !a.refreshing {
			a.refreshing = true
			return a, tea.Batch(a.importCmd(), a.spinner.Tick)
		}
	case "h":
		a.mode = modeHome
	case "?":
		a.mode = modeHelp
	}

	return a, nil
}

func (a *App) handleHomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "e", "enter":
		a.mode = modeNormal
	case "r":
		if a.importer != nil && !a.refreshing {
			a.refreshing = true
			return a, tea.Batch(a.importCmd(), a.spinner.Tick)
		}
	case "q":
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.mode = modeNormal
		a.searchInput.SetValue("")
		a.searchInput.Blur()
		a.params.Search = ""
		a.params.Page = 1
		a.applyView()
		return a, nil
	case "enter":
		a.mode = modeNormal
		a.searchInput.Blur()
		a.params.Search = strings.TrimSpace(a.searchInput.Value())
		a.params.Page = 1
		a.cursor = 0
		a.applyView()
		return a, nil
	}

	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	return a, cmd
}

func (a *App) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "f":
		a.mode = modeNormal
		a.filterBar.filterMode = false
		return a, nil
	case "left", "h":
		a.filterBar.moveLeft()
		return a, nil
	case "right", "l":
		a.filterBar.moveRight()
		return a, nil
	case " ", "enter":
		a.filterBar.toggleCurrent()
	case "0":
		a.filterBar.active = ""
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		idx := int(msg.String()[0] - '1')
		if idx >= len(a.filterBar.categories) {
			return a, nil
		}
		a.filterBar.toggle(a.filterBar.categories[idx].Slug)
	default:
		return a, nil
	}
	a.params.Page = 1
	a.cursor = 0
	a.applyView()
	return a, nil
}

func (a *App) withBottomBar(content string, hints string) string {
	bar := renderBottomBar(hints, a.width)
	lines := strings.Split(content, "\n")
	for len(lines) < a.height-1 {
		lines = append(lines, "")
	}
	if len(lines) >= a.height {
		lines = lines[:max(a.height-1, 0)]
	}
	lines = append(lines, bar)
	return strings.Join(lines, "\n")
}

func (a *App) View() string {
	if a.width == 0 {
		return lipgloss.NewStyle().Foreground(colorAccent).Render("  quill")
	}

	if a.mode == modeHome {
		hints := "e browse  q quit"
		if a.importer != nil {
			hints = "e browse  r import  q quit"
		}
		return a.withBottomBar(renderHomeScreen(a.width, a.height, a.home, a.updateVersion), hints)
	}

	if a.mode == modeHelp {
		return a.withBottomBar(a.renderHelp(), "? close  q quit")
	}

	headerHeight := 1
	filterHeight := 1
	statusHeight := 1
	contentHeight := max(a.height-headerHeight-filterHeight-statusHeight-4, 3) // borders

	listWidth := int(float64(a.width) * 0.35)
	previewWidth := a.width - listWidth - 1

	headerLeft := headerStyle.Render("quill")
	headerRight := headerDateStyle.Render(a.currentDate)
	headerGap := max(a.width-lipgloss.Width(headerLeft)-lipgloss.Width(headerRight), 0)
	header := headerLeft + strings.Repeat(" ", headerGap) + headerRight

	filter := a.filterBar.render(a.width)
	if a.mode == modeSearch {
		filter = a.searchInput.View()
	}

	listContent := renderList(a.page.Posts, a.cursor, contentHeight, listWidth-4)
	listStyle := listPaneStyle
	if a.focus == focusList {
		listStyle = listPaneActiveStyle
	}
	listPane := listStyle.Width(listWidth - 2).Height(contentHeight).Render(listContent)

	var rel []post.Post
	var link string
	sel := a.selected()
	if sel != nil {
		rel = related.Rank(*sel, a.pool, a.relatedCount, time.Now())
		link = postURL(*sel, a.baseURL)
	}
	previewContent := renderPreview(sel, rel, link, previewWidth-4, contentHeight, a.previewScroll)
	previewStyle := previewPaneStyle
	if a.focus == focusPreview {
		previewStyle = previewPaneActiveStyle
	}
	previewPane := previewStyle.Width(previewWidth - 2).Height(contentHeight).Render(previewContent)

	content := lipgloss.JoinHorizontal(lipgloss.Top, listPane, previewPane)

	status := renderStatusBar(statusInfo{
		page:        a.page,
		filterLabel: a.filterBar.activeLabel(),
		search:      a.params.Search,
		sortLabel:   sortLabel(a.params.Sort, a.params.Order),
		searching:   a.mode == modeSearch,
		refreshing:  a.refreshing,
	}, a.width)
	if a.refreshing {
		status = a.spinner.View() + " " + status
	}
	if a.err != nil {
		status = errorStyle.Render(a.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, filter, content, status)
}

func (a *App) renderHelp() string {
	title := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render("quill")
	dim := helpDimStyle

	help := title + dim.Render(" keyboard shortcuts") + "\n\n" +
		dim.Render("Navigation") + "\n" +
		"  j/k, ↑/↓      Move through the page\n" +
		"  n/p, →/←      Next / previous page\n" +
		"  tab           Switch focus between list and preview\n\n" +
		dim.Render("Actions") + "\n" +
		"  o, enter      Open post in browser\n" +
		"  /             Search posts\n" +
		"  f             Category filter mode\n" +
		"  s             Cycle sort field\n" +
		"  S             Reverse sort order\n" +
		"  r             Import feeds\n\n" +
		dim.Render("Filter Mode") + "\n" +
		"  ←/→, h/l      Move between categories\n" +
		"  space/enter   Select category\n" +
		"  0-9           Select by number (0 = all)\n" +
		"  esc, f        Exit filter mode\n\n" +
		dim.Render("General") + "\n" +
		"  h             Home screen\n" +
		"  ?             Toggle this help\n" +
		"  q, ctrl+c     Quit"

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, helpCardStyle.Render(help))
}

// Run starts the TUI application.
func Run(opts RunOpts) error {
	p := tea.NewProgram(NewApp(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
