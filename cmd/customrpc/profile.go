package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Dadangdut33/discord-customrpc-manager/internal/paths"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/presence"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/profile"
)

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage stored presence profiles",
	}

	cmd.AddCommand(profileCreateCmd())
	cmd.AddCommand(profileListCmd())
	cmd.AddCommand(profileDeleteCmd())
	cmd.AddCommand(profileRenameCmd())
	cmd.AddCommand(profileDuplicateCmd())
	cmd.AddCommand(profileExportCmd())
	cmd.AddCommand(profileImportCmd())
	return cmd
}

func openStore() (*profile.Store, error) {
	stateDir, err := paths.StateDir()
	if err != nil {
		return nil, err
	}
	return profile.NewStore(paths.ProfilesPath(stateDir))
}

func profileCreateCmd() *cobra.Command {
	var (
		appID          string
		details        string
		state          string
		largeImageKey  string
		largeImageText string
		smallImageKey  string
		smallImageText string
		buttons        []string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a presence profile",
		Long: `Create a presence profile.

Buttons are given as "Label=URL" and at most two are allowed.

Examples:
  customrpc profile create Gaming --app-id 123456789012345678 --details "Ranked" --state "In queue"
  customrpc profile create Stream --app-id 123456789012345678 --button "Watch=https://twitch.tv/me"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := presence.ValidateAppID(appID); err != nil {
				return err
			}

			p := profile.Profile{
				Name:           name,
				AppID:          appID,
				Details:        details,
				State:          state,
				LargeImageKey:  largeImageKey,
				LargeImageText: largeImageText,
				SmallImageKey:  smallImageKey,
				SmallImageText: smallImageText,
			}
			for _, spec := range buttons {
				label, url, found := strings.Cut(spec, "=")
				if !found {
					return fmt.Errorf("invalid button %q: expected Label=URL", spec)
				}
				p.Buttons = append(p.Buttons, presence.Button{Label: label, URL: url})
			}

			payload := p.Payload()
			if err := payload.Validate(); err != nil {
				return err
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			if err := store.Create(name, p); err != nil {
				return err
			}
			fmt.Printf("Created profile: %s\n", name)
			return nil
		},
	}

	cmd.Flags().StringVar(&appID, "app-id", "", "Discord application ID (17-20 digits)")
	cmd.Flags().StringVar(&details, "details", "", "First presence line")
	cmd.Flags().StringVar(&state, "state", "", "Second presence line")
	cmd.Flags().StringVar(&largeImageKey, "large-image-key", "", "Large image asset key")
	cmd.Flags().StringVar(&largeImageText, "large-image-text", "", "Large image hover text")
	cmd.Flags().StringVar(&smallImageKey, "small-image-key", "", "Small image asset key")
	cmd.Flags().StringVar(&smallImageText, "small-image-text", "", "Small image hover text")
	cmd.Flags().StringArrayVar(&buttons, "button", nil, "Button as Label=URL (repeatable, max 2)")
	_ = cmd.MarkFlagRequired("app-id")
	return cmd
}

func profileListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			names, err := store.List()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("No profiles found.")
				return nil
			}
			fmt.Println("Available profiles:")
			for i, name := range names {
				fmt.Printf("  %d. %s\n", i+1, name)
			}
			return nil
		},
	}
}

func profileDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted profile: %s\n", args[0])
			return nil
		},
	}
}

func profileRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a profile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			if err := store.Rename(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Renamed profile: %s -> %s\n", args[0], args[1])
			return nil
		},
	}
}

func profileDuplicateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <source> <new>",
		Short: "Copy a profile under a new name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			if err := store.Duplicate(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Duplicated profile: %s -> %s\n", args[0], args[1])
			return nil
		},
	}
}

func profileExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <name> <file>",
		Short: "Export a profile to a JSON file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			if err := store.Export(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Exported profile %s to %s\n", args[0], args[1])
			return nil
		},
	}
}

func profileImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file> <name>",
		Short: "Import a profile from a JSON file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			if err := store.Import(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Imported profile: %s\n", args[1])
			return nil
		},
	}
}
