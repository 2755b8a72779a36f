package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pders01/crumb/internal/api"
	"github.com/pders01/crumb/internal/config"
	"github.com/pders01/crumb/internal/pager"
	"github.com/pders01/crumb/internal/validation"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("crumb %s\n", Version)
		fmt.Println("Recipes, blogs and events in your terminal")
		fmt.Println("github.com/pders01/crumb")
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configGenCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the default configuration to ~/.config/crumb/config.toml",
	Run: func(cmd *cobra.Command, args []string) {
		home, _ := os.UserHomeDir()
		configFile := filepath.Join(home, ".config", "crumb", "config.toml")
		if err := config.GenerateDefaultConfig(configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			return
		}
		fmt.Printf("Generated default configuration at: %s\n", configFile)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		data, err := config.Encode(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var loginEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and remember the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc, err := openServices(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		in := bufio.NewReader(cmd.InOrStdin())
		out := cmd.OutOrStdout()
		email := loginEmail
		if email == "" {
			fmt.Fprint(out, "Email: ")
			if email, err = readLine(in); err != nil {
				return err
			}
		}
		fmt.Fprint(out, "Password: ")
		password, err := readPassword(in)
		fmt.Fprintln(out)
		if err != nil {
			return err
		}

		form := validation.LoginForm{Email: email, Password: password}
		if err := validation.Struct(form); err != nil {
			return fmt.Errorf("%s", validation.Summary(err))
		}
		resp, err := svc.client.Login(cmd.Context(), api.LoginRequest{Email: form.Email, Password: form.Password})
		if err != nil {
			return fmt.Errorf("%s", api.ErrorMessage(err, "Login failed"))
		}
		if err := svc.session.Login(resp.User, resp.Token); err != nil {
			return err
		}
		fmt.Fprintf(out, "Signed in as %s\n", resp.User.Username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc, err := openServices(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()
		if err := svc.session.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc, err := openServices(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		out := cmd.OutOrStdout()
		st := svc.session.State()
		if !st.LoggedIn {
			fmt.Fprintln(out, "Not signed in")
			return nil
		}
		line := st.Viewer.Username
		if line == "" && st.User != nil {
			line = st.User.Username
		}
		if st.Viewer.IsAdmin() {
			line += " (admin)"
		}
		if !st.Viewer.ExpiresAt.IsZero() {
			line += ", session expires " + st.Viewer.ExpiresAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintln(out, line)
		return nil
	},
}

var feedPage int

var feedCmd = &cobra.Command{
	Use:       "feed [recipes|blogs|following]",
	Short:     "Print one page of a feed",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"recipes", "blogs", "following"},
	RunE: func(cmd *cobra.Command, args []string) error {
		which := "recipes"
		if len(args) == 1 {
			which = args[0]
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc, err := openServices(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		lines, err := fetchFeed(cmd.Context(), svc.client, cfg, which, feedPage)
		if err != nil {
			return fmt.Errorf("%s", api.ErrorMessage(err, "Failed to load "+which))
		}
		out := cmd.OutOrStdout()
		if len(lines) == 0 {
			fmt.Fprintln(out, "Nothing here yet")
		}
		for _, l := range lines {
			fmt.Fprintln(out, l)
		}
		return nil
	},
}

// fetchFeed loads pages up to page and formats the last one.
func fetchFeed(ctx context.Context, c *api.Client, cfg *config.Config, which string, page int) ([]string, error) {
	if page < 1 {
		page = 1
	}
	switch which {
	case "blogs":
		return loadPage(ctx, pager.New(pager.FromList(c.BlogFeed), cfg.Feed.BlogPageSize), page, func(b api.Blog) string {
			return formatLine(b.Header, b.Author, b.CreatedDate.Format("Jan 2"))
		})
	case "following":
		fetch := pager.MergeFetch(
			pager.NewSource(string(api.KindRecipe), pager.FromList(c.FollowedRecipeFeed)),
			pager.NewSource(string(api.KindBlog), pager.FromList(c.FollowedBlogFeed)),
		)
		return loadPage(ctx, pager.New(fetch, cfg.Feed.FollowingPageSize), page, func(e pager.Entry) string {
			switch item := e.Item.(type) {
			case api.Recipe:
				return formatLine("[recipe] "+item.Header, item.Author, item.CreatedDate.Format("Jan 2"))
			case api.Blog:
				return formatLine("[blog] "+item.Header, item.Author, item.CreatedDate.Format("Jan 2"))
			}
			return e.Key()
		})
	default:
		return loadPage(ctx, pager.New(pager.FromList(c.RecipeFeed), cfg.Feed.RecipePageSize), page, func(r api.Recipe) string {
			return formatLine(r.Header, r.Author, fmt.Sprintf("%d min", r.PreparationTime))
		})
	}
}

func loadPage[T pager.Identifiable](ctx context.Context, p *pager.Pager[T], page int, format func(T) string) ([]string, error) {
	defer p.Close()
	if err := p.LoadInitial(ctx); err != nil {
		return nil, err
	}
	skip := 0
	for n := 1; n < page; n++ {
		skip = len(p.Snapshot().Items)
		loaded, err := p.LoadMore(ctx)
		if err != nil {
			return nil, err
		}
		if !loaded {
			return nil, nil
		}
	}
	items := p.Snapshot().Items[skip:]
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = format(it)
	}
	return lines, nil
}

func formatLine(title string, author *api.UserSummary, detail string) string {
	by := ""
	if author != nil {
		by = " by " + author.Username
	}
	return fmt.Sprintf("%s%s (%s)", title, by, detail)
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readPassword reads without echo from a terminal, or a plain line otherwise.
func readPassword(r *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		return string(b), err
	}
	return readLine(r)
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	feedCmd.Flags().IntVar(&feedPage, "page", 1, "Page number to print")

	configCmd.AddCommand(configGenCmd, configShowCmd)
	rootCmd.AddCommand(versionCmd, configCmd, loginCmd, logoutCmd, whoamiCmd, feedCmd, demoCmd)
}
