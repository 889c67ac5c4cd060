// Package console is a line-oriented driver over the repositories. Each line is
// either a "/command arg,arg,..." or an answer to the conversation's pending
// confirmation. Replies are plain text meant for a chat window or a terminal.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"revue/internal/confirm"
	"revue/internal/guildday"
	"revue/internal/storage"
)

// Caller identifies who sent a line
type Caller struct {
	// Key scopes confirmation sessions, e.g. "group:user"
	Key string
	// MemberID is the default member for records and teams
	MemberID string
	// Admin unlocks mutating roster and boss commands
	Admin bool
}

// Options tune argument parsing
type Options struct {
	Separator string
	MaxTurn   int
	Logger    *slog.Logger
}

type handler func(ctx context.Context, caller Caller, args []string) string

type command struct {
	admin bool
	run   handler
}

// Console dispatches command lines
type Console struct {
	db       *storage.DB
	members  *storage.MemberRepository
	bosses   *storage.BossRepository
	records  *storage.RecordRepository
	teams    *storage.TeamRepository
	queries  *storage.QueryService
	sessions *confirm.Manager
	cal      *guildday.Calendar
	sep      string
	maxTurn  int
	logger   *slog.Logger
	now      func() time.Time
	commands map[string]command
}

// New wires a console to db. members is passed in so the caller decides how
// passwords are sealed.
func New(db *storage.DB, members *storage.MemberRepository, sessions *confirm.Manager, cal *guildday.Calendar, opts Options) *Console {
	if opts.Separator == "" {
		opts.Separator = storage.ListSeparator
	}
	if opts.MaxTurn <= 0 {
		opts.MaxTurn = db.MaxTurn()
	}
	if opts.Logger == nil {
		opts.Logger = db.Logger()
	}

	c := &Console{
		db:       db,
		members:  members,
		bosses:   storage.NewBossRepository(db),
		records:  storage.NewRecordRepository(db),
		teams:    storage.NewTeamRepository(db),
		queries:  storage.NewQueryService(db),
		sessions: sessions,
		cal:      cal,
		sep:      opts.Separator,
		maxTurn:  opts.MaxTurn,
		logger:   opts.Logger,
		now:      time.Now,
	}
	c.commands = c.commandTable()
	return c
}

func (c *Console) commandTable() map[string]command {
	table := map[string]command{}
	register := func(cmd command, names ...string) {
		for _, n := range names {
			table[n] = cmd
		}
	}
	text := func(s string) handler {
		return func(context.Context, Caller, []string) string { return s }
	}

	register(command{run: text(HelpOverall)}, "help", "帮助")
	register(command{run: text(HelpMember)}, "helper_member", "成员管理")
	register(command{run: text(HelpBoss)}, "help_boss", "boss管理")
	register(command{run: text(HelpRecord)}, "helper_record", "记录管理")
	register(command{run: text(HelpTeam)}, "helper_team", "队伍管理")

	register(command{admin: true, run: c.addMember}, "add_member", "添加成员", "am")
	register(command{admin: true, run: c.removeMember}, "remove_member", "移除成员", "rm")
	register(command{admin: true, run: c.updateMember}, "update_member", "更新成员", "um")
	register(command{run: c.searchMember}, "search_member", "搜索成员", "sm")
	register(command{run: c.listMembers}, "list_member", "成员列表", "lm")

	register(command{admin: true, run: c.addBoss}, "add_boss", "添加boss", "ab")
	register(command{admin: true, run: c.removeBoss}, "delete_boss", "移除boss", "rb")
	register(command{admin: true, run: c.updateBoss}, "update_boss", "更新boss", "ub")
	register(command{run: c.searchBoss}, "search_boss", "搜索boss", "sb")
	register(command{run: c.listBosses}, "list_boss", "boss列表", "lb")
	register(command{admin: true, run: c.addBossRange}, "add_boss_range", "添加boss组", "abr")

	register(command{run: c.addRecord}, "add_record", "添加记录", "ar")
	register(command{admin: true, run: c.removeRecord}, "remove_record", "删除记录", "rr")
	register(command{run: text(HelpRecordSearch)}, "search_record", "搜索记录", "sr")
	register(command{run: c.searchRecordsByMember}, "search_record.member", "搜索记录.成员", "sr.m")
	register(command{run: c.searchRecordsByBoss}, "search_record.boss", "搜索记录.boss", "sr.b")
	register(command{run: c.summary}, "summary", "日报")

	register(command{run: c.addTeam}, "add_team", "添加队伍", "at")
	register(command{admin: true, run: c.removeTeam}, "remove_team", "删除队伍", "rt")
	register(command{run: c.searchTeam}, "search_team", "查询队伍", "st")

	register(command{admin: true, run: c.reset}, "EMPTY")
	return table
}

// Handle processes one line and returns the reply; an empty reply means
// nothing should be sent.
func (c *Console) Handle(ctx context.Context, caller Caller, line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}
	if !strings.HasPrefix(line, "/") {
		return c.render(c.sessions.Respond(ctx, caller.Key, line))
	}

	name, rest := splitCommand(strings.TrimPrefix(line, "/"))
	cmd, ok := c.commands[name]
	if !ok {
		return MsgUnknownCommand
	}
	if cmd.admin && !caller.Admin {
		return MsgPermission
	}

	c.logger.Debug("Console command", "key", caller.Key, "command", name)
	return cmd.run(ctx, caller, splitArgs(rest, c.sep))
}

// Run reads lines from in until EOF and writes replies to out
func (c *Console) Run(ctx context.Context, in io.Reader, out io.Writer, caller Caller) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if reply := c.Handle(ctx, caller, scanner.Text()); reply != "" {
			if _, err := fmt.Fprintln(out, reply); err != nil {
				return err
			}
		}
	}
	return scanner.Err()
}

func splitCommand(s string) (name, rest string) {
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

// render turns a session transition into a reply
func (c *Console) render(reply confirm.Reply) string {
	switch reply.Prompt {
	case confirm.PromptNoSession:
		return ""
	case confirm.PromptConfirm:
		return MsgRequestConfirm
	case confirm.PromptDone:
		if reply.Outcome == nil {
			return MsgChangeSuccess
		}
		if reply.Outcome.Status.OK() {
			if reply.Outcome.Detail != "" {
				return reply.Outcome.Detail
			}
			return MsgChangeSuccess
		}
		return failureMessage(reply.Outcome.Status, reply.Description)
	case confirm.PromptAborted:
		return MsgChangeAbort
	case confirm.PromptRetry:
		if reply.State == confirm.StateAccumulating {
			return MsgInvalidArgNum + "\n" + MsgAddTeamCard
		}
		return MsgInvalidArg + "\n" + MsgRequestConfirm
	case confirm.PromptPair:
		return fmt.Sprintf("当前 %d 张卡。", reply.Pairs) + MsgAddTeamCard
	case confirm.PromptNeedPair:
		return MsgNeedTeam + "\n" + MsgAddTeamCard
	case confirm.PromptExhausted:
		return MsgRetriesSpent
	case confirm.PromptExpired:
		return MsgExpired
	}
	return ""
}

// failureMessage maps a failed status onto a member-facing reply
func failureMessage(status storage.Status, subject string) string {
	switch status {
	case storage.StatusAlreadyExists:
		return MsgExists
	case storage.StatusNotExist:
		return fmt.Sprintf(MsgFindFail, subject)
	case storage.StatusConstraintViolation:
		return MsgReferenced
	case storage.StatusMalformedInput:
		return MsgInvalidArg
	}
	return MsgChangeFail + "\n" + MsgError
}

// changed renders the result of an immediate mutation
func changed(status storage.Status, subject string) string {
	if status.OK() {
		return MsgChangeSuccess
	}
	return failureMessage(status, subject)
}

// ask opens a confirmation for key and renders the prompt after a summary line
func (c *Console) ask(caller Caller, summary string, p confirm.Pending) string {
	reply := c.sessions.Begin(caller.Key, p)
	return summary + "\n" + c.render(reply)
}

func (c *Console) reset(ctx context.Context, caller Caller, args []string) string {
	return c.ask(caller, "将清空数据库："+c.db.Path(), confirm.Pending{
		Description: "reset database",
		Commit: func(ctx context.Context) confirm.Outcome {
			res := c.db.Reset(ctx)
			out := confirm.OutcomeOf(res)
			if res.OK() {
				out.Detail = fmt.Sprintf(MsgResetDone, c.db.Path(), res.Payload)
			}
			return out
		},
	})
}
