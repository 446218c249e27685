package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/finboard/internal/api"
	"github.com/theirongolddev/finboard/internal/cli"
	"github.com/theirongolddev/finboard/internal/form"
)

var flagCategoryDescription string

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List transaction categories",
	RunE:  runCategories,
}

var categoriesAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a category",
	Args:  cobra.ExactArgs(1),
	RunE:  runCategoriesAdd,
}

func init() {
	categoriesAddCmd.Flags().StringVarP(&flagCategoryDescription, "description", "d", "", "Optional description")
	categoriesCmd.AddCommand(categoriesAddCmd)
	rootCmd.AddCommand(categoriesCmd)
}

func runCategories(_ *cobra.Command, _ []string) error {
	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := commandContext()
	defer cancel()
	if err := e.requireSession(ctx); err != nil {
		return err
	}

	cats, err := e.loader.Categories(ctx)
	if aerr := e.checkAuth(err); aerr != nil {
		return aerr
	}
	if err != nil {
		return err
	}
	if len(cats) == 0 {
		fmt.Println("\n  No categories defined.")
		return nil
	}

	rows := make([][]string, 0, len(cats))
	for _, c := range cats {
		rows = append(rows, []string{c.ID, c.Name, cli.Truncate(c.Description, 48)})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    fmt.Sprintf("Categories  %d", len(cats)),
		Headers:  []string{"ID", "Name", "Description"},
		Rows:     rows,
		LeftCols: 3,
	}))
	fmt.Println()
	return nil
}

func runCategoriesAdd(_ *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])
	if err := form.ValidateCategoryName(name); err != nil {
		return err
	}

	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()
	if flagOffline {
		return errors.New("cannot create categories offline")
	}

	ctx, cancel := commandContext()
	defer cancel()
	if err := e.requireSession(ctx); err != nil {
		return err
	}

	cat, err := e.client.CreateCategory(ctx, api.NewCategory{
		Name:        name,
		Description: strings.TrimSpace(flagCategoryDescription),
	})
	if aerr := e.checkAuth(err); aerr != nil {
		return aerr
	}
	if err != nil {
		return fmt.Errorf("creating category: %w", err)
	}
	fmt.Printf("  Created category %q (id %s)\n", cat.Name, cat.ID)
	return nil
}
