package main

const (
	emptyUsersMessage = "No users yet."
	emptyCallsMessage = "No call history."

	usersErrorMessage = "Unable to load users."
	callsErrorMessage = "Unable to load calls."

	classOnline  = "status-dot status-online"
	classOffline = "status-dot status-offline"
)

func placeholderRow(message string, span int) Row {
	return Row{
		Placeholder: true,
		Cells:       []Cell{{Text: message, Class: "placeholder", Colspan: span}},
	}
}

// RenderUsers replaces the users table. Rows keep input order.
func RenderUsers(doc *Document, users []User) {
	if len(users) == 0 {
		doc.SetRows(IDUsersBody, []Row{placeholderRow(emptyUsersMessage, usersColumns)})
		return
	}
	rows := make([]Row, 0, len(users))
	for _, u := range users {
		status, class := "Offline", classOffline
		if u.Online {
			status, class = "Online", classOnline
		}
		rows = append(rows, Row{Cells: []Cell{
			{Text: string(u.Username)},
			{Text: string(u.DisplayName)},
			{Text: status, Class: class},
		}})
	}
	doc.SetRows(IDUsersBody, rows)
}

// RenderCalls replaces the call history table. Rows keep input order.
func RenderCalls(doc *Document, calls []Call, tf TimeFormatter) {
	if len(calls) == 0 {
		doc.SetRows(IDCallsBody, []Row{placeholderRow(emptyCallsMessage, callsColumns)})
		return
	}
	rows := make([]Row, 0, len(calls))
	for _, c := range calls {
		rows = append(rows, Row{Cells: []Cell{
			{Text: string(c.ID)},
			{Text: string(c.Caller)},
			{Text: string(c.Callee)},
			{Text: string(c.Status)},
			{Text: tf.FormatTime(string(c.StartedAt))},
		}})
	}
	doc.SetRows(IDCallsBody, rows)
}

func RenderStats(doc *Document, s Stats) {
	doc.SetText(IDMetricTotal, s.TotalUsers.String())
	doc.SetText(IDMetricOnline, s.OnlineUsers.String())
	doc.SetText(IDMetricCalls, s.ActiveCalls.String())
	doc.SetText(IDMetricMessages, s.MessagesToday.String())
}

// ShowError overwrites a table body with a single message row spanning the
// body's data-columns value.
func ShowError(doc *Document, target, message string) {
	span := doc.Columns(target)
	if span <= 0 {
		span = defaultColumns
	}
	doc.SetRows(target, []Row{placeholderRow(message, span)})
}

func RenderSnapshot(doc *Document, snap Snapshot, tf TimeFormatter) {
	RenderStats(doc, snap.Stats)
	RenderUsers(doc, snap.Users)
	RenderCalls(doc, snap.Calls, tf)
}

// renderFailure leaves the page readable after a failed load.
func renderFailure(doc *Document, label string) {
	RenderStats(doc, Stats{})
	ShowError(doc, IDUsersBody, usersErrorMessage)
	ShowError(doc, IDCallsBody, callsErrorMessage)
	doc.SetText(IDLastUpdated, label)
}
