package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/visionbi/strand/pkg/api"
	"github.com/visionbi/strand/pkg/chat"
	"github.com/visionbi/strand/pkg/composer"
	"github.com/visionbi/strand/pkg/config"
	"github.com/visionbi/strand/pkg/logger"
	"github.com/visionbi/strand/pkg/notify"
	"github.com/visionbi/strand/pkg/session"
)

// runPrompt sends one prompt into the selected conversation and streams the
// reply to stdout.
func runPrompt(ctx context.Context, prompt string) error {
	settings := config.Get()

	client := api.NewClientWithTimeout(settings.Server.URL, settings.Server.Timeout)
	store := chat.NewStore()

	project, err := ensureProject(ctx, client, viper.GetString("project"))
	if err != nil {
		return err
	}
	store.PutProject(project)

	conv, err := ensureConversation(ctx, client, project.ID, viper.GetInt64("conversation"))
	if err != nil {
		return err
	}
	store.PutConversation(conv)

	// Rehydrate so the streamed turn lands after the existing history.
	history, err := client.ListMessages(ctx, conv.ID)
	if err != nil {
		logger.Warn("could not load history for conversation %d: %v", conv.ID, err)
	} else {
		store.LoadMessages(conv.ID, history)
	}

	sessions := session.NewController(client, store)
	sessions.SetStallTimeout(settings.Stream.StallTimeout)
	sessions.OnDelta = func(fragment string) {
		fmt.Print(fragment)
	}

	comp := composer.New(sessions, notify.NewWriter(os.Stderr))
	comp.SelectConversation(project.ID, conv.ID)
	comp.SetParams(composer.Params{
		Temperature:     settings.Chat.Temperature,
		MaxTokens:       settings.Chat.MaxTokens,
		ModelID:         settings.Chat.ModelID,
		AgentID:         settings.Chat.AgentID,
		UseRAG:          settings.Chat.UseRAG,
		HistoryStrategy: settings.Chat.HistoryStrategy,
	})
	comp.SetDraft(prompt)

	if !comp.Send() {
		return fmt.Errorf("send rejected: no conversation selected or empty prompt")
	}
	comp.Wait()
	fmt.Println()

	printSummary(store, conv.ID)
	return nil
}

// ensureProject finds the named project, creating it on first use.
func ensureProject(ctx context.Context, client *api.Client, name string) (chat.Project, error) {
	projects, err := client.ListProjects(ctx)
	if err != nil {
		return chat.Project{}, err
	}
	for _, p := range projects {
		if p.Name == name {
			return p, nil
		}
	}
	return client.CreateProject(ctx, name, "")
}

func ensureConversation(ctx context.Context, client *api.Client, projectID, conversationID int64) (chat.Conversation, error) {
	if conversationID == 0 {
		return client.CreateConversation(ctx, projectID, "")
	}

	convs, err := client.ListConversations(ctx, projectID)
	if err != nil {
		return chat.Conversation{}, err
	}
	for _, c := range convs {
		if c.ID == conversationID {
			return c, nil
		}
	}
	return chat.Conversation{}, fmt.Errorf("conversation %d not found in project %d", conversationID, projectID)
}

// printSummary reports the generation statistics of the last assistant
// message, when the backend attached them.
func printSummary(store *chat.Store, conversationID int64) {
	msgs := store.Messages(conversationID)
	for i := len(msgs) - 1; i >= 0; i-- {
		msg := msgs[i]
		if !msg.IsAssistant() {
			continue
		}
		if msg.Meta != nil {
			fmt.Fprintf(os.Stderr, "[%s/%s  %.1f tok/s  %.1fs]\n",
				msg.Meta.Backend, msg.Meta.ModelID, msg.Meta.TokensPerSec, msg.Meta.ElapsedSec)
		}
		return
	}
}
