package services

import (
	"context"
	"fmt"
	"html"
	"log"
	"secret-santa-backend/config"
	"secret-santa-backend/models"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"google.golang.org/api/option"
)

// NotificationService sends email via SendGrid and push via FCM. Both
// channels degrade to log-only when unconfigured, so local development
// works without any credentials.
type NotificationService struct {
	fcm *messaging.Client
}

var notifService *NotificationService

func GetNotificationService() *NotificationService {
	if notifService == nil {
		notifService = &NotificationService{}
		notifService.initFCM()
	}
	return notifService
}

func (ns *NotificationService) initFCM() {
	ctx := context.Background()
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(config.AppConfig.FirebaseCredPath))
	if err != nil {
		log.Printf("⚠️  Firebase not configured, push notifications disabled: %v", err)
		return
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		log.Printf("⚠️  Firebase messaging unavailable, push notifications disabled: %v", err)
		return
	}
	ns.fcm = client
	log.Println("✅ Firebase messaging initialized")
}

func (ns *NotificationService) sendPush(fcmToken string, title string, body string, data map[string]string) {
	if ns.fcm == nil || fcmToken == "" {
		return
	}

	_, err := ns.fcm.Send(context.Background(), &messaging.Message{
		Token: fcmToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	})
	if err != nil {
		log.Printf("❌ Push send error: %v", err)
		return
	}
	log.Printf("✅ Push notification sent: %s", title)
}

func (ns *NotificationService) sendEmail(toEmail string, toName string, subject string, htmlBody string) {
	if config.AppConfig.SendGridAPIKey == "" {
		log.Printf("⚠️  SendGrid API key not set, skipping email to %s", toEmail)
		return
	}

	from := mail.NewEmail(config.AppConfig.AppName, config.AppConfig.SendGridFrom)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, "", htmlBody)

	client := sendgrid.NewSendClient(config.AppConfig.SendGridAPIKey)
	resp, err := client.Send(message)
	if err != nil {
		log.Printf("❌ Email send error: %v", err)
		return
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		log.Printf("✅ Email sent to %s", toEmail)
	} else {
		log.Printf("⚠️  SendGrid returned status: %d", resp.StatusCode)
	}
}

// ============================================================
// NOTIFICATION EVENTS
// ============================================================

// NotifyShuffled tells a member that santas were drawn and it is time to
// submit a wish. It never says who drew whom.
func (ns *NotificationService) NotifyShuffled(member models.User, group models.Group) {
	title := fmt.Sprintf("Santas were drawn in \"%s\"", group.Name)
	body := "Someone drew your name! Submit your gift wish now."

	ns.sendPush(member.FCMToken, title, body, map[string]string{
		"type":     "shuffled",
		"group_id": group.ID.String(),
	})

	ns.sendEmail(member.Email, member.Name, title, buildShuffledEmailHTML(member.Name, group.Name))
}

// NotifyWishApproved nudges a recipient to submit their mailing address.
func (ns *NotificationService) NotifyWishApproved(recipient models.User, group models.Group) {
	title := fmt.Sprintf("Your wish in \"%s\" was approved", group.Name)
	body := "Next step: submit your mailing address."

	ns.sendPush(recipient.FCMToken, title, body, map[string]string{
		"type":     "wish_approved",
		"group_id": group.ID.String(),
	})

	ns.sendEmail(recipient.Email, recipient.Name, title, buildWishApprovedEmailHTML(recipient.Name, group.Name))
}

// NotifyAssignmentReady is the disclosure mail: the santa gets the decrypted
// wish and address. The push deliberately carries no content; plaintext only
// travels in the email body.
func (ns *NotificationService) NotifyAssignmentReady(santa models.User, group models.Group, wish, address string) {
	title := fmt.Sprintf("Your assignment in \"%s\" is ready", group.Name)

	ns.sendPush(santa.FCMToken, title, "Open the app to see your recipient's wish.", map[string]string{
		"type":     "assignment_ready",
		"group_id": group.ID.String(),
	})

	ns.sendEmail(santa.Email, santa.Name, title, buildAssignmentEmailHTML(santa.Name, group.Name, wish, address))
}

// NotifyInvitation emails the group's join code to someone who may not have
// an account yet.
func (ns *NotificationService) NotifyInvitation(email string, inviterName string, group models.Group) {
	subject := fmt.Sprintf("%s invited you to \"%s\" on %s", inviterName, group.Name, config.AppConfig.AppName)
	ns.sendEmail(email, "", subject, buildInvitationEmailHTML(inviterName, group.Name, group.JoinCode))
}

// ============================================================
// EMAIL TEMPLATES
// ============================================================

func buildShuffledEmailHTML(memberName, groupName string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
	<div style="background: white; border-radius: 12px; padding: 32px; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
		<h2 style="color: #c0392b; margin-top: 0;">🎅 Santas were drawn!</h2>
		<p>Hi <strong>%s</strong>,</p>
		<p>The draw for <strong>"%s"</strong> is done and someone is now your Secret Santa.</p>
		<p>Open the app and submit your gift wish so your santa knows what to get you.</p>
		<p style="color: #999; font-size: 12px; margin-top: 24px;">— %s</p>
	</div>
</body>
</html>`, html.EscapeString(memberName), html.EscapeString(groupName), config.AppConfig.AppName)
}

func buildWishApprovedEmailHTML(recipientName, groupName string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
	<div style="background: white; border-radius: 12px; padding: 32px; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
		<h2 style="color: #27ae60; margin-top: 0;">✅ Wish approved</h2>
		<p>Hi <strong>%s</strong>,</p>
		<p>Your wish in <strong>"%s"</strong> was approved by the group admin.</p>
		<p>Next step: submit your mailing address so your santa knows where to ship the gift.</p>
		<p style="color: #999; font-size: 12px; margin-top: 24px;">— %s</p>
	</div>
</body>
</html>`, html.EscapeString(recipientName), html.EscapeString(groupName), config.AppConfig.AppName)
}

func buildAssignmentEmailHTML(santaName, groupName, wish, address string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
	<div style="background: white; border-radius: 12px; padding: 32px; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
		<h2 style="color: #c0392b; margin-top: 0;">🎁 Your assignment is ready</h2>
		<p>Hi <strong>%s</strong>,</p>
		<p>Your recipient in <strong>"%s"</strong> has been cleared. Here is what they wished for:</p>
		<div style="background: #f8f9fa; border-radius: 8px; padding: 16px; margin: 16px 0;">
			<p style="margin: 4px 0; font-size: 18px;"><strong>%s</strong></p>
		</div>
		<p>Ship it to:</p>
		<div style="background: #f8f9fa; border-radius: 8px; padding: 16px; margin: 16px 0;">
			<p style="margin: 4px 0;">%s</p>
		</div>
		<p>Remember: don't tell anyone who you drew. Acknowledge in the app once the gift is on its way.</p>
		<p style="color: #999; font-size: 12px; margin-top: 24px;">— %s</p>
	</div>
</body>
</html>`, html.EscapeString(santaName), html.EscapeString(groupName), html.EscapeString(wish), html.EscapeString(address), config.AppConfig.AppName)
}

func buildInvitationEmailHTML(inviterName, groupName, joinCode string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
	<div style="background: white; border-radius: 12px; padding: 32px; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
		<h2 style="color: #c0392b; margin-top: 0;">🎉 You're invited!</h2>
		<p><strong>%s</strong> invited you to join the Secret Santa group <strong>"%s"</strong>.</p>
		<p>Create an account and join with this code:</p>
		<div style="background: #f8f9fa; border-radius: 8px; padding: 16px; margin: 16px 0; text-align: center;">
			<p style="margin: 4px 0; font-size: 24px; letter-spacing: 4px;"><strong>%s</strong></p>
		</div>
		<div style="margin: 24px 0;">
			<a href="%s" style="background: #c0392b; color: white; padding: 12px 32px; border-radius: 8px; text-decoration: none; font-weight: bold;">Join Now</a>
		</div>
		<p style="color: #999; font-size: 12px; margin-top: 24px;">— %s</p>
	</div>
</body>
</html>`, html.EscapeString(inviterName), html.EscapeString(groupName), joinCode, config.AppConfig.AppURL, config.AppConfig.AppName)
}
