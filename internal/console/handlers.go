package console

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"revue/internal/confirm"
	"revue/internal/guildday"
	"revue/internal/storage"
)

func formatMember(m storage.Member) string {
	return fmt.Sprintf("QQ号: %s; 昵称: %s; 游戏账号: %s", m.MemberID, m.Alias, m.Account)
}

func formatBoss(b storage.Boss) string {
	return fmt.Sprintf("BossID: %d; Boss名: %s; 血量: %d", b.BossID, b.Alias, b.Health)
}

func formatTeam(t storage.Team) string {
	return fmt.Sprintf("QQ号: %s; 队伍序号: %d; 队伍卡组: %s; 队伍us: %s",
		t.MemberID, t.TeamID, strings.Join(t.Cards, ","), strings.Join(t.Modifiers, ","))
}

func (c *Console) formatMemberRecord(r storage.Record) string {
	return fmt.Sprintf("#%d 使用队伍 %d 对Boss %d 造成 %d 点伤害，第 %d 刀，消耗 %d 回合，时间 %s",
		r.RecordID, r.Team, r.BossID, r.Damage, r.Sequence, r.Turn, c.cal.Format(r.DateTime))
}

func (c *Console) formatBossRecord(r storage.Record) string {
	return fmt.Sprintf("#%d 成员 %s 使用队伍 %d 造成 %d 点伤害，第 %d 刀，消耗 %d 回合，时间 %s",
		r.RecordID, r.MemberID, r.Team, r.Damage, r.Sequence, r.Turn, c.cal.Format(r.DateTime))
}

func listing[T any](items []T, format func(T) string) string {
	if len(items) == 0 {
		return MsgListEmpty
	}
	lines := make([]string, 0, len(items)+1)
	lines = append(lines, MsgListSuccess)
	for _, it := range items {
		lines = append(lines, format(it))
	}
	return strings.Join(lines, "\n")
}

// memberFromArgs reads id,alias,{account},{password}
func memberFromArgs(args []string) (storage.Member, bool) {
	if len(args) < 2 || len(args) > 4 {
		return storage.Member{}, false
	}
	m := storage.Member{MemberID: args[0], Alias: args[1]}
	if len(args) > 2 {
		m.Account = args[2]
	}
	if len(args) > 3 {
		m.Password = args[3]
	}
	return m, true
}

// bossFromArgs reads id,alias,health
func bossFromArgs(args []string) (storage.Boss, bool) {
	if len(args) != 3 {
		return storage.Boss{}, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return storage.Boss{}, false
	}
	health, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return storage.Boss{}, false
	}
	return storage.Boss{BossID: id, Alias: args[1], Health: health}, true
}

func (c *Console) addMember(ctx context.Context, _ Caller, args []string) string {
	m, ok := memberFromArgs(args)
	if !ok {
		return MsgInvalidArgNum
	}
	return changed(c.members.Add(ctx, m).Status, m.MemberID)
}

func (c *Console) removeMember(ctx context.Context, caller Caller, args []string) string {
	if len(args) != 1 {
		return MsgInvalidArgNum
	}
	found := c.members.SearchOne(ctx, args[0])
	if !found.OK() {
		return failureMessage(found.Status, args[0])
	}
	m := found.Payload
	return c.ask(caller, fmt.Sprintf(MsgFindSuccess, formatMember(m)), confirm.Pending{
		Description: m.MemberID,
		Commit: func(ctx context.Context) confirm.Outcome {
			return confirm.OutcomeOf(c.members.Delete(ctx, m.MemberID))
		},
	})
}

func (c *Console) updateMember(ctx context.Context, caller Caller, args []string) string {
	m, ok := memberFromArgs(args)
	if !ok {
		return MsgInvalidArgNum
	}
	found := c.members.SearchOne(ctx, m.MemberID)
	if !found.OK() || found.Payload.MemberID != m.MemberID {
		return fmt.Sprintf(MsgFindFail, m.MemberID)
	}
	return c.ask(caller, fmt.Sprintf(MsgFindSuccess, formatMember(found.Payload))+"\n→ "+formatMember(m), confirm.Pending{
		Description: m.MemberID,
		Commit: func(ctx context.Context) confirm.Outcome {
			return confirm.OutcomeOf(c.members.Update(ctx, m))
		},
	})
}

func (c *Console) searchMember(ctx context.Context, _ Caller, args []string) string {
	if len(args) != 1 {
		return MsgInvalidArgNum
	}
	res := c.members.SearchOne(ctx, args[0])
	if !res.OK() {
		return failureMessage(res.Status, args[0])
	}
	return fmt.Sprintf(MsgFindSuccess, formatMember(res.Payload))
}

func (c *Console) listMembers(ctx context.Context, _ Caller, _ []string) string {
	res := c.members.ListAll(ctx)
	if !res.OK() {
		return failureMessage(res.Status, "")
	}
	return listing(res.Payload, formatMember)
}

func (c *Console) addBoss(ctx context.Context, _ Caller, args []string) string {
	b, ok := bossFromArgs(args)
	if !ok {
		return MsgInvalidArg
	}
	return changed(c.bosses.Add(ctx, b).Status, b.Alias)
}

func (c *Console) removeBoss(ctx context.Context, caller Caller, args []string) string {
	if len(args) != 1 {
		return MsgInvalidArgNum
	}
	found := c.bosses.SearchOne(ctx, args[0])
	if !found.OK() {
		return failureMessage(found.Status, args[0])
	}
	b := found.Payload
	return c.ask(caller, fmt.Sprintf(MsgFindSuccess, formatBoss(b)), confirm.Pending{
		Description: b.Alias,
		Commit: func(ctx context.Context) confirm.Outcome {
			return confirm.OutcomeOf(c.bosses.Delete(ctx, b.BossID))
		},
	})
}

func (c *Console) updateBoss(ctx context.Context, caller Caller, args []string) string {
	b, ok := bossFromArgs(args)
	if !ok {
		return MsgInvalidArg
	}
	found := c.bosses.SearchOne(ctx, args[0])
	if !found.OK() || found.Payload.BossID != b.BossID {
		return fmt.Sprintf(MsgFindFail, args[0])
	}
	return c.ask(caller, fmt.Sprintf(MsgFindSuccess, formatBoss(found.Payload))+"\n→ "+formatBoss(b), confirm.Pending{
		Description: args[0],
		Commit: func(ctx context.Context) confirm.Outcome {
			return confirm.OutcomeOf(c.bosses.Update(ctx, b))
		},
	})
}

func (c *Console) searchBoss(ctx context.Context, _ Caller, args []string) string {
	if len(args) != 1 {
		return MsgInvalidArgNum
	}
	res := c.bosses.SearchOne(ctx, args[0])
	if !res.OK() {
		return failureMessage(res.Status, args[0])
	}
	return fmt.Sprintf(MsgFindSuccess, formatBoss(res.Payload))
}

func (c *Console) listBosses(ctx context.Context, _ Caller, _ []string) string {
	res := c.bosses.ListAll(ctx)
	if !res.OK() {
		return failureMessage(res.Status, "")
	}
	return listing(res.Payload, formatBoss)
}

// addBossRange reads four names, four healths, the first level and the
// level after the last
func (c *Console) addBossRange(ctx context.Context, _ Caller, args []string) string {
	if len(args) != 2*storage.BossSlots+2 {
		return MsgInvalidArgNum
	}
	rng := storage.BossRange{Names: args[:storage.BossSlots]}
	for _, h := range args[storage.BossSlots : 2*storage.BossSlots] {
		health, err := strconv.ParseInt(h, 10, 64)
		if err != nil {
			return MsgInvalidArg
		}
		rng.Healths = append(rng.Healths, health)
	}
	var err error
	if rng.Start, err = strconv.Atoi(args[2*storage.BossSlots]); err != nil {
		return MsgInvalidArg
	}
	if rng.End, err = strconv.Atoi(args[2*storage.BossSlots+1]); err != nil {
		return MsgInvalidArg
	}

	res := c.bosses.AddRange(ctx, rng)
	switch res.Status {
	case storage.StatusInsertSuccess, storage.StatusAlreadyExists:
		created := 0
		for _, o := range res.Payload {
			if o.Status == storage.StatusInsertSuccess {
				created++
			}
		}
		return fmt.Sprintf(MsgRangeDone, rng.Start, rng.End-1, created)
	}
	return failureMessage(res.Status, "")
}

func (c *Console) addRecord(ctx context.Context, caller Caller, args []string) string {
	ra, ok := parseRecordArgs(args, c.maxTurn)
	if !ok {
		return MsgInvalidArg
	}

	memberIdent := ra.Member
	if memberIdent == "" {
		memberIdent = caller.MemberID
	}
	member := c.members.Resolve(ctx, memberIdent)
	if !member.OK() {
		return failureMessage(member.Status, memberIdent)
	}
	boss := c.bosses.Resolve(ctx, ra.Boss)
	if !boss.OK() {
		return failureMessage(boss.Status, ra.Boss)
	}

	stamp := c.now().Unix()
	if ra.Date != "" {
		start, err := c.cal.DayStart(ra.Date)
		if err != nil {
			return MsgInvalidArg
		}
		stamp = start
	}

	res := c.records.Add(ctx, storage.Record{
		MemberID: member.Payload,
		BossID:   boss.Payload,
		Damage:   ra.Damage,
		Sequence: ra.Sequence,
		Turn:     ra.Turn,
		Team:     ra.Team,
		DateTime: stamp,
	})
	return changed(res.Status, memberIdent)
}

// removeRecord deletes every record of a member against a boss with the given
// damage, after showing what will go
func (c *Console) removeRecord(ctx context.Context, caller Caller, args []string) string {
	if len(args) != 3 {
		return MsgInvalidArgNum
	}
	damage, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return MsgInvalidArg
	}
	boss := c.bosses.Resolve(ctx, args[1])
	if !boss.OK() {
		return failureMessage(boss.Status, args[1])
	}
	res := c.queries.RecordsByMember(ctx, args[0], guildday.All())
	if !res.OK() {
		return failureMessage(res.Status, args[0])
	}

	var matches []storage.Record
	for _, r := range res.Payload {
		if r.BossID == boss.Payload && r.Damage == damage {
			matches = append(matches, r)
		}
	}
	if len(matches) == 0 {
		return fmt.Sprintf(MsgFindFail, strings.Join(args, c.sep))
	}

	ids := make([]int64, len(matches))
	for i, r := range matches {
		ids[i] = r.RecordID
	}
	return c.ask(caller, listing(matches, c.formatMemberRecord), confirm.Pending{
		Description: strings.Join(args, c.sep),
		Commit: func(ctx context.Context) confirm.Outcome {
			return confirm.OutcomeOf(c.records.DeleteIDs(ctx, ids))
		},
	})
}

// windowArgs reads ident,{date|-all}
func (c *Console) windowArgs(args []string) (string, guildday.Window, bool) {
	if len(args) < 1 || len(args) > 2 {
		return "", guildday.Window{}, false
	}
	var day string
	if len(args) == 2 {
		day = args[1]
	}
	w, err := c.cal.Resolve(day, c.now())
	if err != nil {
		return "", guildday.Window{}, false
	}
	return args[0], w, true
}

func (c *Console) searchRecordsByMember(ctx context.Context, _ Caller, args []string) string {
	ident, w, ok := c.windowArgs(args)
	if !ok {
		return MsgInvalidArg
	}
	res := c.queries.RecordsByMember(ctx, ident, w)
	if !res.OK() {
		return failureMessage(res.Status, ident)
	}
	if len(res.Payload) == 0 {
		return fmt.Sprintf(MsgFindFail, ident)
	}
	return fmt.Sprintf(MsgFindSuccess, "成员("+ident+")") + "\n" + listing(res.Payload, c.formatMemberRecord)
}

func (c *Console) searchRecordsByBoss(ctx context.Context, _ Caller, args []string) string {
	ident, w, ok := c.windowArgs(args)
	if !ok {
		return MsgInvalidArg
	}
	res := c.queries.RecordsByBoss(ctx, ident, w)
	if !res.OK() {
		return failureMessage(res.Status, ident)
	}
	if len(res.Payload) == 0 {
		return fmt.Sprintf(MsgFindFail, ident)
	}
	return fmt.Sprintf(MsgFindSuccess, "Boss("+ident+")") + "\n" + listing(res.Payload, c.formatBossRecord)
}

func (c *Console) summary(ctx context.Context, _ Caller, args []string) string {
	if len(args) > 1 {
		return MsgInvalidArgNum
	}
	var day string
	if len(args) == 1 {
		day = args[0]
	}
	w, err := c.cal.Resolve(day, c.now())
	if err != nil {
		return MsgInvalidArg
	}
	res := c.queries.DailySummary(ctx, w)
	if !res.OK() {
		return failureMessage(res.Status, "")
	}
	return listing(res.Payload, func(s storage.MemberSummary) string {
		return fmt.Sprintf("%s(%s): %d 刀，总伤害 %d", s.Alias, s.MemberID, s.Attempts, s.TotalDamage)
	})
}

// addTeam starts collecting cards for team_id,{member}
func (c *Console) addTeam(ctx context.Context, caller Caller, args []string) string {
	if len(args) < 1 || len(args) > 2 {
		return MsgInvalidArgNum
	}
	teamID, err := strconv.Atoi(args[0])
	if err != nil {
		return MsgInvalidArg
	}
	memberIdent := caller.MemberID
	if len(args) == 2 {
		memberIdent = args[1]
	}
	member := c.members.Resolve(ctx, memberIdent)
	if !member.OK() {
		return failureMessage(member.Status, memberIdent)
	}

	existing := c.teams.SearchOne(ctx, member.Payload, teamID)
	switch {
	case existing.OK():
		return MsgExists
	case existing.Status != storage.StatusNotExist:
		return failureMessage(existing.Status, memberIdent)
	}

	reply := c.sessions.BeginTeam(caller.Key, member.Payload, teamID, func(ctx context.Context, t storage.Team) confirm.Outcome {
		return confirm.OutcomeOf(c.teams.Add(ctx, t))
	})
	return c.render(reply)
}

func (c *Console) removeTeam(ctx context.Context, caller Caller, args []string) string {
	if len(args) != 2 {
		return MsgInvalidArgNum
	}
	teamID, err := strconv.Atoi(args[1])
	if err != nil {
		return MsgInvalidArg
	}
	found := c.teams.SearchOne(ctx, args[0], teamID)
	if !found.OK() {
		return failureMessage(found.Status, strings.Join(args, c.sep))
	}
	t := found.Payload
	return c.ask(caller, fmt.Sprintf(MsgFindSuccess, formatTeam(t)), confirm.Pending{
		Description: strings.Join(args, c.sep),
		Commit: func(ctx context.Context) confirm.Outcome {
			return confirm.OutcomeOf(c.teams.Delete(ctx, t.MemberID, t.TeamID))
		},
	})
}

func (c *Console) searchTeam(ctx context.Context, caller Caller, args []string) string {
	if len(args) > 2 {
		return MsgInvalidArgNum
	}
	memberIdent := caller.MemberID
	if len(args) >= 1 && args[0] != "" {
		memberIdent = args[0]
	}

	if len(args) == 2 {
		teamID, err := strconv.Atoi(args[1])
		if err != nil {
			return MsgInvalidArg
		}
		res := c.teams.SearchOne(ctx, memberIdent, teamID)
		if !res.OK() {
			return failureMessage(res.Status, memberIdent)
		}
		return fmt.Sprintf(MsgFindSuccess, memberIdent) + "\n" + listing([]storage.Team{res.Payload}, formatTeam)
	}

	res := c.queries.TeamsByMember(ctx, memberIdent)
	if !res.OK() {
		return failureMessage(res.Status, memberIdent)
	}
	return fmt.Sprintf(MsgFindSuccess, memberIdent) + "\n" + listing(res.Payload, formatTeam)
}
