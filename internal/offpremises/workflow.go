package offpremises

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakghana/20feb26qrcode-sub000/internal/audit"
	"github.com/oakghana/20feb26qrcode-sub000/internal/engine"
	"github.com/oakghana/20feb26qrcode-sub000/internal/geo"
	"github.com/oakghana/20feb26qrcode-sub000/internal/models"
	"github.com/oakghana/20feb26qrcode-sub000/internal/notify"
)

const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// Workflow is the Pending -> {Approved, Rejected} state machine for
// requests to check in away from the assigned location. The terminal
// transition happens exactly once, enforced by a conditional update on the
// pending status.
type Workflow struct {
	db       *gorm.DB
	engine   *engine.Engine
	notifier notify.Notifier
	audit    *audit.Logger
}

func New(db *gorm.DB, sessionEngine *engine.Engine, notifier notify.Notifier, auditLogger *audit.Logger) *Workflow {
	return &Workflow{db: db, engine: sessionEngine, notifier: notifier, audit: auditLogger}
}

type SubmitRequest struct {
	LocationName   string
	Coordinates    *geo.Coordinates
	AccuracyMeters *float64
	Reason         string
}

// Submit files a pending request and notifies the requester's department
// head. Notification delivery is best-effort.
func (w *Workflow) Submit(user *models.User, req SubmitRequest) (*models.OffPremisesRequest, error) {
	request := models.OffPremisesRequest{
		UserID:         user.ID,
		LocationName:   req.LocationName,
		Reason:         req.Reason,
		Status:         models.OffPremisesStatusPending,
		AccuracyMeters: req.AccuracyMeters,
	}
	if req.Coordinates != nil {
		request.Latitude = &req.Coordinates.Latitude
		request.Longitude = &req.Coordinates.Longitude
	}
	if err := w.db.Create(&request).Error; err != nil {
		return nil, err
	}

	w.audit.Record(user.ID.String(), "off_premises.submit", "off_premises_requests", request.ID.String(), map[string]any{
		"locationName": req.LocationName,
		"reason":       req.Reason,
	})

	var head models.User
	err := w.db.Where("role = ? AND department = ? AND active = ?", models.RoleDepartmentHead, user.Department, true).
		First(&head).Error
	if err == nil {
		w.notifier.Notify(head.ID, "Off-premises check-in request",
			fmt.Sprintf("%s requests to check in at %s: %s", user.Name, req.LocationName, req.Reason),
			"/off-premises/"+request.ID.String())
	}

	return &request, nil
}

type DecideResult struct {
	Request *models.OffPremisesRequest
	// Attendance is the synthesized record on approval; nil with a Warning
	// when the requester already held one for the day.
	Attendance *models.AttendanceRecord
	Warning    string
}

// Decide moves a pending request to a terminal state. The approver must be
// scoped to the requester: same-department head, same-region regional
// admin, or global admin.
func (w *Workflow) Decide(approver *models.User, requestID uuid.UUID, action string, rejectionReason string, now time.Time) (*DecideResult, error) {
	var request models.OffPremisesRequest
	if err := w.db.Where("id = ?", requestID).Take(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, engine.Reject(engine.KindLocationNotFound, "off-premises request %s does not exist", requestID)
		}
		return nil, err
	}
	if request.Decided() {
		return nil, engine.Reject(engine.KindAlreadyDecided, "this request was already %s on %s",
			request.Status, request.DecidedAt.In(now.Location()).Format("2006-01-02 15:04:05"))
	}

	var requester models.User
	if err := w.db.Where("id = ?", request.UserID).Take(&requester).Error; err != nil {
		return nil, err
	}
	if !approverScoped(approver, &requester) {
		return nil, engine.Reject(engine.KindInsufficientScope, "you are not a supervisor for %s staff in %s",
			requester.Department, requester.Region)
	}

	if action != ActionApprove && action != ActionReject {
		return nil, fmt.Errorf("unknown decision %q", action)
	}
	if action == ActionReject && rejectionReason == "" {
		return nil, engine.Reject(engine.KindRejectionReasonRequired, "rejecting a request requires a reason")
	}

	status := models.OffPremisesStatusApproved
	if action == ActionReject {
		status = models.OffPremisesStatusRejected
	}

	result := &DecideResult{}
	err := w.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"status":      status,
			"approver_id": approver.ID,
			"decided_at":  now,
		}
		if action == ActionReject {
			updates["rejection_reason"] = rejectionReason
		}
		flip := tx.Model(&models.OffPremisesRequest{}).
			Where("id = ? AND status = ?", request.ID, models.OffPremisesStatusPending).
			Updates(updates)
		if flip.Error != nil {
			return flip.Error
		}
		if flip.RowsAffected == 0 {
			return engine.Reject(engine.KindAlreadyDecided, "this request was decided by someone else a moment ago")
		}

		if action == ActionApprove {
			checkIn, err := w.engine.RequestCheckInTx(tx, &requester, now, engine.CheckInRequest{
				LocationName: request.LocationName,
				Coordinates:  requestCoordinates(&request),
				Proof:        engine.ProofSupervisorApproved,
			})
			if err != nil {
				rejection, ok := engine.AsRejection(err)
				if !ok {
					return err
				}
				switch rejection.Kind {
				case engine.KindAlreadyCheckedIn, engine.KindAlreadyCheckedOut, engine.KindDuplicateCheckInRace:
					// The approval stands; the day already has its record.
					result.Warning = "approved; the staff member already has an attendance record for today"
					return nil
				default:
					return err
				}
			}
			result.Attendance = checkIn.Record
			return tx.Model(&models.OffPremisesRequest{}).
				Where("id = ?", request.ID).
				Update("attendance_id", checkIn.Record.ID).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := w.db.Where("id = ?", request.ID).Take(&request).Error; err != nil {
		return nil, err
	}
	result.Request = &request

	w.audit.Record(approver.ID.String(), "off_premises."+action, "off_premises_requests", request.ID.String(), map[string]any{
		"requesterId":     request.UserID,
		"status":          request.Status,
		"rejectionReason": request.RejectionReason,
	})

	title := "Off-premises request " + request.Status
	message := fmt.Sprintf("Your off-premises check-in request for %s was %s.", request.LocationName, request.Status)
	if request.Status == models.OffPremisesStatusRejected {
		message += " Reason: " + request.RejectionReason
	}
	w.notifier.Notify(request.UserID, title, message, "/off-premises/"+request.ID.String())

	return result, nil
}

func approverScoped(approver *models.User, requester *models.User) bool {
	switch approver.Role {
	case models.RoleGlobalAdmin:
		return true
	case models.RoleRegionalAdmin:
		return approver.Region != "" && approver.Region == requester.Region
	case models.RoleDepartmentHead:
		return approver.Department != "" && approver.Department == requester.Department
	default:
		return false
	}
}

func requestCoordinates(request *models.OffPremisesRequest) *geo.Coordinates {
	if request.Latitude == nil || request.Longitude == nil {
		return nil
	}
	return &geo.Coordinates{Latitude: *request.Latitude, Longitude: *request.Longitude}
}
