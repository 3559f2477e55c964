package bot

import (
	"log"

	tele "gopkg.in/telebot.v3"
)

type messageSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
	Delete(msg tele.Editable) error
}

// progress is the temporary "working on it" message shown while a slow request runs.
// It is edited as the request advances and replaced by the result or the error.
type progress struct {
	sender messageSender
	to     tele.Recipient
	msg    *tele.Message
}

func startProgress(sender messageSender, to tele.Recipient, text string) *progress {
	p := &progress{sender: sender, to: to}
	if sender == nil || to == nil {
		return p
	}
	msg, err := sender.Send(to, text)
	if err != nil {
		log.Printf("progress message failed: %v", err)
		return p
	}
	p.msg = msg
	return p
}

func (p *progress) Update(text string) {
	if p == nil || p.msg == nil {
		return
	}
	if _, err := p.sender.Edit(p.msg, text); err != nil {
		log.Printf("progress update failed: %v", err)
	}
}

// Fail replaces the progress message with text, or sends text when there is nothing to edit.
func (p *progress) Fail(text string) error {
	if p == nil || p.sender == nil || p.to == nil {
		return nil
	}
	if p.msg != nil {
		if _, err := p.sender.Edit(p.msg, text, tele.ModeMarkdown); err == nil {
			return nil
		}
	}
	_, err := p.sender.Send(p.to, text)
	return err
}

// Done removes the progress message once the result was delivered separately.
func (p *progress) Done() {
	if p == nil || p.msg == nil {
		return
	}
	if err := p.sender.Delete(p.msg); err != nil {
		log.Printf("progress cleanup failed: %v", err)
	}
	p.msg = nil
}
