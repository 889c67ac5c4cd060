package console

// Replies shown to members
const (
	MsgChangeSuccess = "已更新记录。"
	MsgFindSuccess   = "找到记录：%s。"
	MsgListEmpty     = "记录为空。"
	MsgListSuccess   = "记录如下："

	MsgChangeFail  = "记录更新失败。"
	MsgFindFail    = "未找到记录：%s。"
	MsgChangeAbort = "放弃更新记录。"
	MsgExists      = "记录已存在。"
	MsgReferenced  = "记录仍被引用，无法删除。"

	MsgError          = "发生错误，请联系管理员。"
	MsgInvalidArg     = "非法参数！请重新输入！"
	MsgInvalidArgNum  = "参数数量错误！请重新输入！"
	MsgRequestConfirm = "请确认操作[y/n]。"
	MsgRetriesSpent   = "多次输入无效，已放弃操作。"
	MsgExpired        = "操作已超时，已放弃。"
	MsgPermission     = "权限不足。"
	MsgUnknownCommand = "未知命令，请使用 /help 查看帮助。"

	MsgAddTeamCard = "请输入 卡牌ID,us 添加一张卡，输入 confirm 完成，abort 放弃。"
	MsgNeedTeam    = "队伍中至少需要一张卡。"
	MsgResetDone   = "已清空数据库：%s（共 %d 行）。"
	MsgRangeDone   = "已添加第 %d 至 %d 阶段的 Boss，新增 %d 个。"
)

// Help texts
const (
	HelpOverall = `工会战管理插件：
0. 使用"/"作为命令起始，英文逗号","作为参数分隔符
1. /成员管理 用于查看成员管理部分命令
2. /boss管理 用于查看Boss管理部分命令
3. /记录管理 用于查看出刀记录管理部分命令
4. /队伍管理 用于查看队伍管理部分命令`

	HelpMember = `成员管理：
0. 使用英文逗号","作为参数分隔符，请遵循参数输入顺序
1. /添加成员 QQ号,昵称,游戏账号,密码（仅限管理使用）
2. /移除成员 QQ号（仅限管理使用）
3. /更新成员 QQ号,昵称,游戏账号,密码（仅限管理使用）
4. /搜索成员 QQ号|昵称
5. /成员列表`

	HelpBoss = `boss管理：
0. 使用英文逗号","作为参数分隔符，请遵循参数输入顺序
1. /添加boss BossID,Boss名,血量（仅限管理使用）
2. /移除boss BossID（仅限管理使用）
3. /更新boss BossID,Boss名,血量（仅限管理使用）
4. /搜索boss BossID|Boss名
5. /boss列表
6. /添加boss组 名1,名2,名3,名4,血量1,血量2,血量3,血量4,起始阶段,结束阶段（仅限管理使用）`

	HelpRecord = `记录管理：
0. 使用英文逗号","作为参数分隔符，请遵循参数输入顺序及格式
1. /添加记录 刀序(第几刀),BossID|Boss名,队伍序号,伤害值,
    {回合数(留空默认为6)},
    {日期(YYYY-MM-DD留空默认为当天)},
    {QQ号|昵称(留空默认为发送者)}
2. /删除记录 QQ号|昵称,BossID|Boss名,伤害值（仅限管理使用）
3. /搜索记录 用于查看搜索命令
4. /日报 {日期(YYYY-MM-DD)|-all}`

	HelpRecordSearch = `请使用指定对象的搜索命令：必须{可选}
/search_record.member|搜索记录.成员|sr.m QQ号|昵称,{日期(YYYY-MM-DD)|-all}
/search_record.boss|搜索记录.boss|sr.b BossID|Boss名,{日期(YYYY-MM-DD)|-all}`

	HelpTeam = `队伍管理：
0. 使用英文逗号","作为参数分隔符
1. /添加队伍 队伍序号,{QQ号|昵称(留空默认为发送者)}
2. /删除队伍 QQ号|昵称,队伍序号
3. /查询队伍 QQ号|昵称,{队伍序号}`
)
