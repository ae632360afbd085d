// Package browse is a line-oriented terminal front end over catalog.View.
//
// Output is driven by the view: every state change the view publishes is
// rendered, including search input that settles after the debounce delay.
// Commands only print directly when they are rejected.
package browse

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/HerbHall/shopfront/internal/catalog"
	"github.com/HerbHall/shopfront/internal/favorites"
	"github.com/HerbHall/shopfront/pkg/models"
)

// ErrQuit is returned by Exec for the quit command.
var ErrQuit = errors.New("quit")

const help = `commands:
  search <text>        filter by title (empty clears)
  category <value>     all, electronics, jewelery, "men's clothing", "women's clothing"
  categories           list categories
  sort <option>        default, price-asc, price-desc
  favorites on|off     show only favorites
  fav <id>             toggle a product in favorites
  favs                 list saved favorites
  next, prev           change page
  page <n>             jump to page n
  show                 redraw the current page
  help                 this text
  quit                 leave`

// Session binds a view and a favorites store to a terminal.
type Session struct {
	view     *catalog.View
	favs     *favorites.Store
	products map[int]models.Product
	logger   *zap.Logger

	mu    sync.Mutex
	out   io.Writer
	unsub func()
}

// New creates a session rendering to out. products is the catalog used to
// resolve ids for the fav command.
func New(view *catalog.View, favs *favorites.Store, products []models.Product, out io.Writer, logger *zap.Logger) *Session {
	s := &Session{
		view:     view,
		favs:     favs,
		products: make(map[int]models.Product, len(products)),
		logger:   logger.Named("browse"),
		out:      out,
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	s.unsub = view.Subscribe(s.render)
	return s
}

// Close detaches the session from the view.
func (s *Session) Close() {
	s.unsub()
}

// Run renders the first page and executes commands from in until quit, EOF,
// or ctx is canceled.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	s.render(s.view.Snapshot())
	s.println(`type "help" for commands`)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			if err := s.Exec(ctx, line); err != nil {
				if errors.Is(err, ErrQuit) {
					return nil
				}
				s.println("error: " + err.Error())
			}
		}
	}
}

// Exec runs one command line.
func (s *Session) Exec(ctx context.Context, line string) error {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)
	s.logger.Debug("command", zap.String("cmd", cmd), zap.String("arg", arg))

	switch strings.ToLower(cmd) {
	case "":
		return nil
	case "quit", "exit", "q":
		return ErrQuit
	case "help", "?":
		s.println(help)
	case "show":
		s.render(s.view.Snapshot())
	case "search":
		s.view.SetSearch(arg)
	case "category", "cat":
		c, ok := models.ParseCategory(strings.Trim(arg, `"'`))
		if !ok {
			return fmt.Errorf("unknown category %q", arg)
		}
		s.view.SetCategory(c)
	case "categories":
		s.printCategories()
	case "sort":
		o, ok := models.ParseSortOption(arg)
		if !ok {
			return fmt.Errorf("unknown sort option %q", arg)
		}
		s.view.SetSort(o)
	case "favorites":
		switch strings.ToLower(arg) {
		case "on", "true", "yes":
			s.view.SetFavoritesOnly(true)
		case "off", "false", "no":
			s.view.SetFavoritesOnly(false)
		default:
			return fmt.Errorf("favorites takes on or off")
		}
	case "fav":
		id, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("fav takes a product id")
		}
		p, ok := s.products[id]
		if !ok {
			return fmt.Errorf("no product with id %d", id)
		}
		s.favs.ToggleFavorite(ctx, p)
	case "favs":
		s.printFavorites()
	case "next", "n":
		if !s.view.NextPage() {
			s.println("already on the last page")
		}
	case "prev", "p":
		if !s.view.PrevPage() {
			s.println("already on the first page")
		}
	case "page":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("page takes a number")
		}
		if total := s.view.TotalPages(); n < 1 || n > total {
			return fmt.Errorf("page must be between 1 and %d", max(total, 1))
		}
		s.view.GoToPage(n)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func (s *Session) render(snap catalog.Snapshot) {
	var b strings.Builder

	c := snap.Criteria
	fmt.Fprintf(&b, "\n== %s | sort: %s", c.Category.Label(), c.Sort.Label())
	if c.Search != "" {
		fmt.Fprintf(&b, " | search: %q", c.Search)
	}
	if c.FavoritesOnly {
		b.WriteString(" | favorites only")
	}
	b.WriteString(" ==\n")
	b.WriteString(snap.CountText + "\n")

	for _, p := range snap.Items {
		mark := " "
		if s.favs.IsFavorite(p.ID) {
			mark = "*"
		}
		fmt.Fprintf(&b, "  [%s] #%-3d %-50s $%8.2f  %s\n", mark, p.ID, truncate(p.Title, 50), p.Price, p.Category)
	}

	if ctl := snap.Controls; ctl != nil {
		b.WriteString("Pages:")
		for _, it := range ctl.Pages {
			switch {
			case it.Ellipsis:
				b.WriteString(" ...")
			case it.Current:
				fmt.Fprintf(&b, " [%d]", it.Page)
			default:
				fmt.Fprintf(&b, " %d", it.Page)
			}
		}
		b.WriteString("\n")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = io.WriteString(s.out, b.String())
}

func (s *Session) printCategories() {
	var b strings.Builder
	fmt.Fprintf(&b, "  %-18s %s\n", models.CategoryAll, models.CategoryAll.Label())
	for _, v := range models.DefaultCategories() {
		fmt.Fprintf(&b, "  %-18s %s\n", v, models.Category(v).Label())
	}
	s.println(strings.TrimRight(b.String(), "\n"))
}

func (s *Session) printFavorites() {
	items := s.favs.Favorites()
	var b strings.Builder
	b.WriteString(favorites.SavedText(len(items)))
	for _, p := range items {
		fmt.Fprintf(&b, "\n  #%-3d %-50s $%8.2f", p.ID, truncate(p.Title, 50), p.Price)
	}
	s.println(b.String())
}

func (s *Session) println(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = io.WriteString(s.out, msg+"\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
