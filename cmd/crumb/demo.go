package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/crumb/internal/api"
	"github.com/pders01/crumb/internal/fakeapi"
)

var demoAddr string

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run an in-memory backend with sample content",
	Long: "Starts a local backend seeded with a few users, recipes, blogs and events.\n" +
		"Point the client at it with --server http://127.0.0.1:8787.\n" +
		"Every demo account uses the password \"password\".",
	RunE: func(cmd *cobra.Command, args []string) error {
		backend := fakeapi.New()
		seedDemo(backend, time.Now().UTC())

		srv := &http.Server{
			Addr:              demoAddr,
			Handler:           backend.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()
		fmt.Fprintf(cmd.OutOrStdout(), "Demo backend listening on http://%s\n", demoAddr)

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	},
}

// seedDemo fills backend with a small connected community.
func seedDemo(backend *fakeapi.Server, now time.Time) {
	users := map[string]api.User{}
	for _, u := range []api.User{
		{ID: "ada", Username: "ada", Email: "ada@example.com", Bio: "Bakes bread on weekends"},
		{ID: "ben", Username: "ben", Email: "ben@example.com", Bio: "Soup enthusiast"},
		{ID: "cleo", Username: "cleo", Email: "cleo@example.com", Role: api.RoleAdmin, Bio: "Keeps the place tidy"},
	} {
		users[u.ID] = backend.AddUser(u, "password")
	}
	by := func(id string) *api.UserSummary {
		return &api.UserSummary{ID: id, Username: users[id].Username}
	}

	backend.AddRecipes(
		api.Recipe{
			ID:       "sourdough",
			AuthorID: "ada",
			Author:   by("ada"),
			Header:   "Country sourdough",
			BodyText: "Mix, rest, fold every half hour, shape and proof overnight. Bake covered at 250C.",
			Ingredients: []api.Ingredient{
				{Name: "flour", Quantity: 500, Unit: "g"},
				{Name: "water", Quantity: 375, Unit: "ml"},
				{Name: "salt", Quantity: 10, Unit: "g"},
			},
			PreparationTime: 90,
			Servings:        8,
			Tags:            []string{"bread", "baking"},
			CreatedDate:     now.Add(-48 * time.Hour),
		},
		api.Recipe{
			ID:       "tomato-soup",
			AuthorID: "ben",
			Author:   by("ben"),
			Header:   "Roasted tomato soup",
			BodyText: "Roast the tomatoes with garlic until blistered, then blend with stock.",
			Ingredients: []api.Ingredient{
				{Name: "tomatoes", Quantity: 1, Unit: "kg"},
				{Name: "garlic", Quantity: 4, Unit: "cloves"},
				{Name: "stock", Quantity: 500, Unit: "ml"},
			},
			PreparationTime: 45,
			Servings:        4,
			Tags:            []string{"soup"},
			CreatedDate:     now.Add(-6 * time.Hour),
		},
		api.Recipe{
			ID:       "pancakes",
			AuthorID: "ben",
			Author:   by("ben"),
			Header:   "Sunday pancakes",
			BodyText: "Whisk everything, rest ten minutes, fry in butter.",
			Ingredients: []api.Ingredient{
				{Name: "flour", Quantity: 200, Unit: "g"},
				{Name: "eggs", Quantity: 2},
				{Name: "milk", Quantity: 300, Unit: "ml"},
			},
			PreparationTime: 20,
			Servings:        2,
			Tags:            []string{"breakfast"},
			CreatedDate:     now.Add(-time.Hour),
		},
	)
	backend.AddBlogs(
		api.Blog{
			ID:          "starter",
			AuthorID:    "ada",
			Author:      by("ada"),
			Header:      "Keeping a starter alive",
			BodyText:    "Feed it twice a day and keep it somewhere warm. It forgives a lot.",
			CreatedDate: now.Add(-30 * time.Hour),
		},
		api.Blog{
			ID:          "stock",
			AuthorID:    "ben",
			Author:      by("ben"),
			Header:      "Why I always make my own stock",
			BodyText:    "Bones, scraps and time. Freeze it in small portions.",
			CreatedDate: now.Add(-3 * time.Hour),
		},
	)
	start := now.Add(7 * 24 * time.Hour)
	backend.AddEvents(api.Event{
		ID:           "bake-off",
		AuthorID:     "cleo",
		Author:       by("cleo"),
		Title:        "Neighbourhood bake-off",
		Description:  "Bring one loaf and one story about it.",
		Location:     "Community hall",
		StartDate:    start,
		EndDate:      start.Add(3 * time.Hour),
		CreationDate: now.Add(-24 * time.Hour),
	})
	backend.AddParticipant("bake-off", "ada")
	backend.AddComment(api.KindRecipe, "tomato-soup", api.Comment{AuthorID: "ada", BodyText: "Added smoked paprika, lovely.", CreatedDate: now})
	backend.SetLiked(api.KindRecipe, "sourdough", "ben")
	backend.SetFollow("ada", "ben")
}

func init() {
	demoCmd.Flags().StringVar(&demoAddr, "addr", "127.0.0.1:8787", "Address to listen on")
}
