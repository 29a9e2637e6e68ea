// Package cli implements the storefront command-line client. Every command
// runs against its own in-process container seeded from the demo catalog, so
// mutations last only for that invocation.
package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/service"
	"storefront/internal/state"
	"storefront/internal/store"

	"github.com/spf13/cobra"
)

type options struct {
	seedFile   string
	latency    time.Duration
	jsonOutput bool
}

// NewRootCmd builds the storefront command tree
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Browse the demo storefront from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.seedFile, "seed", "", "YAML seed file (defaults to the built-in catalog)")
	root.PersistentFlags().DurationVar(&opts.latency, "latency", 0, "Simulated data service latency")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	root.AddCommand(
		newProductsCmd(opts),
		newProductCmd(opts),
		newCategoriesCmd(opts),
		newOrdersCmd(opts),
		newCartCmd(opts),
		newSetStatusCmd(opts),
	)
	return root
}

func (o *options) container(ctx context.Context) (*state.Container, error) {
	seed, err := store.LoadSeed(o.seedFile)
	if err != nil {
		return nil, err
	}
	svc := service.NewDataService(store.NewMemoryStore(seed), service.WithLatency(o.latency))
	c := state.New(svc)
	if err := c.Load(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func newProductsCmd(opts *options) *cobra.Command {
	var (
		search   string
		category int64
	)

	cmd := &cobra.Command{
		Use:   "products",
		Short: "List products, optionally filtered by name and category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.container(cmd.Context())
			if err != nil {
				return err
			}

			products := c.SearchProducts(search, category)
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), products)
			}

			w := table(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tNAME\tPRICE\tSTOCK")
			for _, p := range products {
				stock := strconv.Itoa(p.Stock)
				if !p.InStock() {
					stock = "out of stock"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, p.Name, p.Price.StringFixed(2), stock)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Case-insensitive name filter")
	cmd.Flags().Int64VarP(&category, "category", "c", 0, "Category ID filter")
	return cmd
}

func newProductCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "product <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid product ID %q", args[0])
			}

			c, err := opts.container(cmd.Context())
			if err != nil {
				return err
			}

			p, ok := c.Product(id)
			if !ok {
				return fmt.Errorf("%w: %d", models.ErrProductNotFound, id)
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), p)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n%s\n\nPrice: %s\n", p.Name, p.Description, p.Price.StringFixed(2))
			if p.InStock() {
				fmt.Fprintf(out, "In stock: %d\n", p.Stock)
			} else {
				fmt.Fprintln(out, "Out of Stock")
			}
			return nil
		},
	}
}

func newCategoriesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.container(cmd.Context())
			if err != nil {
				return err
			}

			categories := c.Snapshot().Categories
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), categories)
			}

			w := table(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tNAME")
			for _, cat := range categories {
				fmt.Fprintf(w, "%d\t%s\n", cat.ID, cat.Name)
			}
			return w.Flush()
		},
	}
}

func newOrdersCmd(opts *options) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Show the order history of a customer, or every order for an admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := models.ParseRole(role)
			if err != nil {
				return err
			}

			c, err := opts.container(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := c.Login(cmd.Context(), r); err != nil {
				return fmt.Errorf("failed to log in as %s: %w", r, err)
			}

			orders := c.OrderHistory()
			if c.IsAdmin() {
				orders = c.Snapshot().Orders
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), orders)
			}

			w := table(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tCUSTOMER\tDATE\tSTATUS\tTOTAL")
			for _, o := range orders {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					o.ID, o.CustomerName, o.CreatedAt.Format("2006-01-02"), o.Status, o.Total.StringFixed(2))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&role, "role", string(models.RoleCustomer), "Log in as customer or admin")
	return cmd
}

func newCartCmd(opts *options) *cobra.Command {
	var adds, sets []string

	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Build a cart and print its contents and total",
		Long: `Build a cart from --add and --set entries of the form ID[:QUANTITY].
Adds are applied first, in order, then sets. A set quantity of 0 removes the item.`,
		Example: "  storefront cart --add 1 --add 3:2 --set 3:5",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.container(cmd.Context())
			if err != nil {
				return err
			}

			for _, entry := range adds {
				id, qty, err := parseCartEntry(entry, 1)
				if err != nil {
					return err
				}
				p, ok := c.Product(id)
				if !ok {
					return fmt.Errorf("%w: %d", models.ErrProductNotFound, id)
				}
				c.AddToCart(p, qty)
			}
			for _, entry := range sets {
				id, qty, err := parseCartEntry(entry, -1)
				if err != nil {
					return err
				}
				c.UpdateCartQuantity(id, qty)
			}

			cart := c.Cart()
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
					"items": cart,
					"total": c.CartTotal(),
					"count": c.CartItemCount(),
				})
			}

			w := table(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tNAME\tQTY\tSUBTOTAL")
			for _, item := range cart {
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\n",
					item.Product.ID, item.Product.Name, item.Quantity, item.Subtotal().StringFixed(2))
			}
			fmt.Fprintf(w, "\t\t%d\t%s\n", c.CartItemCount(), c.CartTotal().StringFixed(2))
			return w.Flush()
		},
	}
	cmd.Flags().StringArrayVar(&adds, "add", nil, "Add ID[:QUANTITY] to the cart")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Set ID:QUANTITY in the cart")
	return cmd
}

func newSetStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <order-id> <status>",
		Short: "Change an order's status as the admin user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := models.ParseOrderStatus(args[1])
			if err != nil {
				return err
			}

			c, err := opts.container(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := c.Login(cmd.Context(), models.RoleAdmin); err != nil {
				return fmt.Errorf("failed to log in as admin: %w", err)
			}

			order, err := c.UpdateOrderStatus(cmd.Context(), args[0], status)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), order)
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.Notification())
			return nil
		},
	}
}

// parseCartEntry reads ID[:QUANTITY]. A missing quantity yields def, and a
// negative def makes the quantity mandatory.
func parseCartEntry(entry string, def int) (int64, int, error) {
	idPart, qtyPart, hasQty := strings.Cut(entry, ":")

	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid product ID in %q", entry)
	}

	if !hasQty {
		if def < 0 {
			return 0, 0, fmt.Errorf("missing quantity in %q", entry)
		}
		return id, def, nil
	}

	qty, err := strconv.Atoi(qtyPart)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid quantity in %q", entry)
	}
	return id, qty, nil
}
