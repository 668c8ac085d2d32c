package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
)

// Session holds REPL state.
type Session struct {
	client *Client
	userID string
	out    io.Writer
}

func NewSession(client *Client, userID string) *Session {
	return &Session{client: client, userID: userID}
}

// Run reads commands until exit or EOF.
func (s *Session) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "revtrack> ",
		HistoryFile:     "/tmp/revtrack_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("init readline failed: %w", err)
	}
	defer func() { _ = rl.Close() }()
	s.out = rl.Stdout()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			s.printLine("bye")
			return nil
		}
		if err := s.handleCommand(ctx, line); err != nil {
			s.printLine("error: %v", err)
		}
	}
}

func (s *Session) handleCommand(ctx context.Context, line string) error {
	tokens, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse command failed: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	switch tokens[0] {
	case "help":
		s.printHelp()
		return nil
	case "set":
		return s.handleSet(tokens[1:])
	case "show":
		return s.handleShow(tokens[1:])
	case "add":
		return s.handleAdd(ctx, tokens[1:])
	case "list":
		return s.handleList(ctx)
	case "get":
		return s.handleGet(ctx, tokens[1:])
	case "progress":
		return s.handleProgress(ctx, tokens[1:])
	case "delete":
		return s.handleDelete(ctx, tokens[1:])
	default:
		return fmt.Errorf("unknown command: %s", tokens[0])
	}
}

func (s *Session) handleSet(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: set user|base|timeout <value>")
	}
	switch args[0] {
	case "user":
		s.userID = args[1]
		s.printLine("user set to %s", args[1])
	case "base":
		s.client.SetBaseURL(args[1])
		s.printLine("base set to %s", args[1])
	case "timeout":
		dur, err := time.ParseDuration(args[1])
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		s.client.SetTimeout(dur)
		s.printLine("timeout set to %s", dur)
	default:
		return fmt.Errorf("unknown set command: %s", args[0])
	}
	return nil
}

func (s *Session) handleShow(args []string) error {
	if len(args) == 0 || args[0] == "config" {
		s.printLine("base: %s", s.client.BaseURL())
		if s.userID == "" {
			s.printLine("user: <unset>")
		} else {
			s.printLine("user: %s", s.userID)
		}
		return nil
	}
	return fmt.Errorf("usage: show config")
}

func (s *Session) handleAdd(ctx context.Context, args []string) error {
	if err := s.requireUser(); err != nil {
		return err
	}
	params, err := parseParams(args)
	if err != nil {
		return err
	}
	input := CreateReviewInput{
		ProblemID:   params["problemId"],
		Title:       params["title"],
		ContestName: params["contest"],
	}
	if raw := params["difficulty"]; raw != "" {
		input.Difficulty, err = strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid difficulty: %w", err)
		}
	}

	review, location, err := s.client.CreateReview(ctx, s.userID, input)
	if err != nil {
		return err
	}
	s.printLine("created %s at %s", review.ID, location)
	s.printReview(review)
	return nil
}

func (s *Session) handleList(ctx context.Context) error {
	if err := s.requireUser(); err != nil {
		return err
	}
	reviews, err := s.client.ListReviews(ctx, s.userID)
	if err != nil {
		return err
	}
	if len(reviews) == 0 {
		s.printLine("no reviews")
		return nil
	}
	for i := range reviews {
		rv := &reviews[i]
		s.printLine("%s  %-12s %-6s %4d  %s", rv.ID, rv.ProblemID, solvedMark(rv.IsSolved), rv.Difficulty, rv.Title)
	}
	return nil
}

func (s *Session) handleGet(ctx context.Context, args []string) error {
	if err := s.requireUser(); err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: get <id>")
	}
	review, err := s.client.GetReview(ctx, s.userID, args[0])
	if err != nil {
		return err
	}
	s.printReview(review)
	return nil
}

func (s *Session) handleProgress(ctx context.Context, args []string) error {
	if err := s.requireUser(); err != nil {
		return err
	}
	if len(args) < 1 {
		return fmt.Errorf("usage: progress <id> solved=true|false [notes=...]")
	}
	id := args[0]
	params, err := parseParams(args[1:])
	if err != nil {
		return err
	}
	solved := false
	if raw := params["solved"]; raw != "" {
		solved, err = strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid solved value: %w", err)
		}
	}

	if err := s.client.UpdateProgress(ctx, s.userID, id, solved, params["notes"]); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("review %s not found", id)
		}
		return err
	}
	s.printLine("progress updated")
	return nil
}

func (s *Session) handleDelete(ctx context.Context, args []string) error {
	if err := s.requireUser(); err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: delete <id>")
	}
	if err := s.client.DeleteReview(ctx, s.userID, args[0]); err != nil {
		return err
	}
	s.printLine("deleted")
	return nil
}

func (s *Session) requireUser() error {
	if s.userID == "" {
		return fmt.Errorf("no user selected, run: set user <id>")
	}
	return nil
}

func (s *Session) printReview(rv *Review) {
	s.printLine("id:         %s", rv.ID)
	s.printLine("problem:    %s", rv.ProblemID)
	s.printLine("title:      %s", rv.Title)
	s.printLine("contest:    %s", rv.ContestName)
	s.printLine("difficulty: %d", rv.Difficulty)
	s.printLine("solved:     %t", rv.IsSolved)
	if rv.Notes != "" {
		s.printLine("notes:      %s", rv.Notes)
	}
	s.printLine("createdAt:  %s", rv.CreatedAt)
}

func (s *Session) printHelp() {
	s.printLine("commands:")
	s.printLine("  add problemId=abc300_a title=\"Linear Search\" contest=ABC300 difficulty=800")
	s.printLine("  list")
	s.printLine("  get <id>")
	s.printLine("  progress <id> solved=true notes=\"two pointers\"")
	s.printLine("  delete <id>")
	s.printLine("system: help | exit | set user|base|timeout <value> | show config")
}

func (s *Session) printLine(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.out, format+"\n", args...)
}

func parseParams(tokens []string) (map[string]string, error) {
	params := make(map[string]string, len(tokens))
	for _, token := range tokens {
		parts := strings.SplitN(token, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid param: %s", token)
		}
		params[parts[0]] = parts[1]
	}
	return params, nil
}

func solvedMark(solved bool) string {
	if solved {
		return "done"
	}
	return "todo"
}
