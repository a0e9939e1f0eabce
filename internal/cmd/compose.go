package cmd

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/promptalchemy/promptalchemy/internal/catalog"
	"github.com/promptalchemy/promptalchemy/internal/config"
	"github.com/promptalchemy/promptalchemy/internal/observability"
	"github.com/promptalchemy/promptalchemy/internal/studio"
	"github.com/promptalchemy/promptalchemy/internal/studio/backend"
	"github.com/promptalchemy/promptalchemy/internal/studio/localstore"
)

var (
	composeImages     []string
	composeProvider   string
	composeAPIKey     string
	composeFamily     string
	composeCheckpoint string
	composeCreativity float64
	composeContext    string
	composeFocus      []string
	composeUpscaler   string
	composeFaceFixer  string
	composeControl    string
	composeCopy       bool
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Turn reference images into a generation-ready prompt",
	Long: `Compose a prompt from reference images.

The command runs the full composer flow against a running backend:
session freshness check, credential cache, the bounded image stash with
preview thumbnails, and prompt generation. Up to 6 images are accepted;
extra candidates are dropped.`,
	RunE: runCompose,
}

func runCompose(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := observability.CLILogger

	if len(composeImages) == 0 {
		return fmt.Errorf("at least one --image is required")
	}

	provider, err := resolveProviderArg(firstNonEmpty(composeProvider))
	if err != nil {
		return err
	}

	cat, err := catalog.Load()
	if err != nil {
		ExitWithCode(logger, foundry.ExitConfigInvalid, "Failed to load model catalog", err)
	}

	family := cat.DefaultFamily()
	if composeFamily != "" {
		resolved, ok := cat.Family(composeFamily)
		if !ok {
			return fmt.Errorf("unknown model family %q", composeFamily)
		}
		family = resolved
	}
	checkpoint := family.Checkpoint(composeCheckpoint)

	if composeCreativity < 0 || composeCreativity > 1 {
		return fmt.Errorf("creativity must be between 0 and 1")
	}
	for _, aspect := range composeFocus {
		if !cat.HasFocusAspect(aspect) {
			return fmt.Errorf("unknown focus aspect %q", aspect)
		}
	}

	// Local state cache shared with earlier runs
	store, err := localstore.Open(ctx, viper.GetString("store.path"))
	if err != nil {
		ExitWithCode(logger, foundry.ExitFileNotFound, "Failed to open local store", err)
	}
	defer store.Close() // nolint:errcheck // best-effort cleanup

	client := backend.NewClient(viper.GetString("studio.backend_url"))

	// Wipe cached credentials when the backend instance changed
	if token, err := client.SessionToken(ctx); err != nil {
		logger.Warn("Session check failed, keeping cached credentials", zap.Error(err))
	} else {
		studio.EnsureFreshSession(ctx, store, token)
	}

	apiKey := resolveComposeKey(ctx, store, client, provider)
	if apiKey == "" {
		return fmt.Errorf("no API key for %s: pass --api-key or run \"keys set %s <key>\"", provider.Label(), provider)
	}

	stash, minter, err := buildStash(logger)
	if err != nil {
		return err
	}
	defer func() {
		for _, item := range stash.Items() {
			minter.Revoke(item.PreviewHandle)
		}
	}()

	stash.AddFiles(loadImageFiles(logger, composeImages))
	if !stash.CanSubmit() {
		return fmt.Errorf("no usable reference images")
	}
	renderGallery(stash.Items())

	readout := studio.Creativity(composeCreativity)
	fmt.Printf("Creativity: %d%%\n", readout.Percent)

	result, err := client.Generate(ctx, backend.GenerateRequest{
		Provider:          provider,
		APIKey:            apiKey,
		ModelFamilyID:     family.ID,
		CheckpointID:      checkpoint.ID,
		FocusAspects:      composeFocus,
		CreativityLevel:   composeCreativity,
		AdditionalContext: composeContext,
		Upscaler:          composeUpscaler,
		FaceFixer:         composeFaceFixer,
		ControlModel:      composeControl,
	}, stash.FileList().Files())
	if err != nil {
		return fmt.Errorf("generate prompt: %w", err)
	}

	renderResult(result)

	if composeCopy {
		copyResultToClipboard(result.Prompt)
	}

	return nil
}

// resolveComposeKey runs the credential cache flow: an explicit --api-key is
// captured into the store and pushed to the backend, otherwise the cached or
// environment-seeded key is used.
func resolveComposeKey(ctx context.Context, store localstore.KV, client *backend.Client, provider studio.Provider) string {
	ks := studio.NewKeyStore(ctx, store, client)
	ks.SelectProvider(provider)

	if composeAPIKey != "" {
		ks.OnDisplayFocus()
		ks.OnDisplayInput(composeAPIKey)
		ks.OnDisplayBlur()
		ks.Flush()
		return composeAPIKey
	}

	if key, ok := ks.CachedKey(provider); ok {
		return key
	}

	// One remote hydration attempt before giving up
	if key, err := client.FetchKey(ctx, provider); err == nil && key != "" {
		return key
	}
	return ""
}

// buildStash creates the bounded image stash with a thumbnail minter writing
// under the app cache directory.
func buildStash(logger *logging.Logger) (*studio.ImageStash, *studio.ThumbnailMinter, error) {
	previewDir := filepath.Join(config.DefaultCacheDir(), "previews")
	minter, err := studio.NewThumbnailMinter(previewDir)
	if err != nil {
		return nil, nil, fmt.Errorf("create preview directory: %w", err)
	}

	stash := studio.NewImageStash(minter)
	stash.SetChangeListener(func(items []studio.Item, canSubmit bool) {
		if len(items) == studio.MaxStashSize {
			logger.Warn("Image stash is full, extra candidates dropped",
				zap.Int("max", studio.MaxStashSize))
		}
	})
	return stash, minter, nil
}

// loadImageFiles turns CLI paths into stash candidates, detecting media types
// by extension. Unreadable paths are skipped with a warning.
func loadImageFiles(logger *logging.Logger, paths []string) []studio.File {
	files := make([]studio.File, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			logger.Warn("Skipping unreadable image", zap.String("path", path), zap.Error(err))
			continue
		}
		mediaType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
		files = append(files, studio.File{
			Name:      filepath.Base(path),
			Path:      path,
			MediaType: mediaType,
		})
	}
	return files
}

func renderGallery(items []studio.Item) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Reference Images")
	t.AppendHeader(table.Row{"#", "Name", "Type", "Preview"})

	for i, item := range items {
		t.AppendRow(table.Row{
			i + 1,
			item.File.Name,
			item.File.MediaType,
			item.PreviewHandle,
		})
	}

	t.Render()
}

func renderResult(result *backend.GenerateResult) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendRow(table.Row{"Model Family", result.ModelFamily})
	t.AppendRow(table.Row{"Checkpoint", result.Checkpoint})
	t.Render()

	fmt.Printf("\nPrompt:\n%s\n", result.Prompt)
	if result.NegativePrompt != "" {
		fmt.Printf("\nNegative Prompt:\n%s\n", result.NegativePrompt)
	}
}

// copyResultToClipboard copies the prompt and prints the transient feedback
// label the way the composer UI does.
func copyResultToClipboard(prompt string) {
	binder := studio.NewCopyBinder()
	binder.SetWriter(clipboard.WriteAll)
	binder.Copy("prompt", prompt)
	if label := binder.Label("prompt"); label != "" {
		fmt.Printf("\n%s\n", label)
	}
}

// firstNonEmpty adapts the optional --provider flag to the positional-arg
// helper shared with the keys command.
func firstNonEmpty(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return []string{value}
}

func init() {
	rootCmd.AddCommand(composeCmd)

	composeCmd.Flags().StringArrayVarP(&composeImages, "image", "i", nil, "reference image path (repeatable, up to 6)")
	composeCmd.Flags().StringVar(&composeProvider, "provider", "", "prompt provider (gemini, openai, grok)")
	composeCmd.Flags().StringVar(&composeAPIKey, "api-key", "", "provider API key (cached for later runs)")
	composeCmd.Flags().StringVar(&composeFamily, "family", "", "target model family id")
	composeCmd.Flags().StringVar(&composeCheckpoint, "checkpoint", "", "checkpoint id within the family")
	composeCmd.Flags().Float64Var(&composeCreativity, "creativity", 0.5, "creativity level between 0 and 1")
	composeCmd.Flags().StringVar(&composeContext, "context", "", "additional context for the prompt")
	composeCmd.Flags().StringArrayVar(&composeFocus, "focus", nil, "focus aspect (repeatable)")
	composeCmd.Flags().StringVar(&composeUpscaler, "upscaler", "", "auxiliary upscaler id")
	composeCmd.Flags().StringVar(&composeFaceFixer, "face-fixer", "", "auxiliary face fixer id")
	composeCmd.Flags().StringVar(&composeControl, "control", "", "auxiliary control model id")
	composeCmd.Flags().BoolVar(&composeCopy, "copy", false, "copy the prompt to the clipboard")
}
