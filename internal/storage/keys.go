package storage

// Key builders for the bucket layout. Downstream consumers read these paths, so the
// formats must not change.

// InboundMessageKey is where the mail receiver stages the raw message.
func InboundMessageKey(messageID string) string {
	return "inbound/" + messageID
}

// InboundAttachmentKey is where an extracted attachment is staged.
func InboundAttachmentKey(messageID, attachmentID string) string {
	return "inbound/" + messageID + "/" + attachmentID
}

// ReceivedMessageKey is an account's delivered copy of the raw message.
func ReceivedMessageKey(accountID, messageID string) string {
	return "received/" + accountID + "/" + messageID
}

// ReceivedAttachmentKey is an account's delivered copy of an attachment.
func ReceivedAttachmentKey(accountID, messageID, attachmentID string) string {
	return "received/" + accountID + "/" + messageID + "/" + attachmentID
}

// QueueAttachmentKey is the private copy of an attachment for one forward operation.
func QueueAttachmentKey(token, attachmentID string) string {
	return "queue/" + token + "/" + attachmentID
}
