package models

// All lists every model owned by the relational store, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Workspace{},
		&WorkspaceMember{},
		&Course{},
		&CourseMember{},
		&Module{},
		&Task{},
		&Team{},
		&TeamMember{},
		&TeamTask{},
		&Product{},
		&ProductVersion{},
		&Guide{},
		&Attachment{},
		&PromptConversation{},
		&PromptFeedback{},
		&Comment{},
		&CommentMention{},
		&InviteToken{},
	}
}
