package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakghana/20feb26qrcode-sub000/internal/models"
)

func checkInAt(t *testing.T, e *Engine, user *models.User, office *models.Location, hour, min int) {
	t.Helper()
	_, err := e.RequestCheckIn(user, clock(hour, min, 0), CheckInRequest{
		LocationID: &office.ID, Coordinates: nearOffice(), Proof: ProofUnverified, Device: testDevice(),
	})
	require.NoError(t, err)
}

func TestCheckOut_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	e := newTestEngine(t, db)
	office := seedLocation(t, db, "Head Office", models.LocationCategoryHeadOffice)
	user := seedUser(t, db, office)
	checkInAt(t, e, user, office, 8, 45)

	result, err := e.RequestCheckOut(user, clock(17, 30, 0), CheckOutRequest{
		LocationID: &office.ID, Coordinates: nearOffice(), Device: testDevice(),
	})
	require.NoError(t, err)

	record := result.Record
	require.NotNil(t, record.CheckOutAt)
	assert.False(t, record.CheckOutAt.Before(record.CheckInAt))
	require.NotNil(t, record.WorkHours)
	assert.Equal(t, 8.75, *record.WorkHours)
	assert.False(t, result.Early)
	assert.False(t, record.EarlyCheckout)
	assert.Equal(t, office.Name, record.CheckOutLocationName)
}

func TestCheckOut_NoOpenSession(t *testing.T) {
	db := openTestDB(t)
	e := newTestEngine(t, db)
	user := seedUser(t, db, nil)

	_, err := e.RequestCheckOut(user, clock(17, 0, 0), CheckOutRequest{Device: testDevice()})
	requireRejection(t, err, KindNoOpenSession)
}

func TestCheckOut_AlreadyCheckedOut(t *testing.T) {
	db := openTestDB(t)
	e := newTestEngine(t, db)
	office := seedLocation(t, db, "Head Office", models.LocationCategoryHeadOffice)
	user := seedUser(t, db, office)
	checkInAt(t, e, user, office, 8, 0)

	_, err := e.RequestCheckOut(user, clock(17, 0, 0), CheckOutRequest{Device: testDevice()})
	require.NoError(t, err)

	_, err = e.RequestCheckOut(user, clock(17, 5, 0), CheckOutRequest{Device: testDevice()})
	rejection := requireRejection(t, err, KindAlreadyCheckedOut)
	require.NotNil(t, rejection.Record)
	assert.Contains(t, rejection.Message, "17:00:00")
}

func TestCheckOut_EarlyNeedsReason(t *testing.T) {
	db := openTestDB(t)
	e := newTestEngine(t, db)
	branch := seedLocation(t, db, "Tema Branch", models.LocationCategoryBranch)
	user := seedUser(t, db, branch)
	checkInAt(t, e, user, branch, 8, 0)

	// 16:30 is before the 17:00 branch threshold.
	_, err := e.RequestCheckOut(user, clock(16, 30, 0), CheckOutRequest{Device: testDevice()})
	rejection := requireRejection(t, err, KindEarlyCheckoutReasonRequired)
	assert.Contains(t, rejection.Message, "17:00")

	result, err := e.RequestCheckOut(user, clock(16, 30, 0), CheckOutRequest{
		Reason: "medical appointment", Device: testDevice(),
	})
	require.NoError(t, err)
	assert.True(t, result.Early)
	assert.True(t, result.Record.EarlyCheckout)
	assert.Equal(t, "medical appointment", result.Record.EarlyCheckoutReason)
	assert.Equal(t, 8.5, *result.Record.WorkHours)
}

func TestCheckOut_OperationalSiteThreshold(t *testing.T) {
	db := openTestDB(t)
	e := newTestEngine(t, db)
	site := seedLocation(t, db, "Tarkwa Site", models.LocationCategoryOperationalSite)
	user := seedUser(t, db, site)
	checkInAt(t, e, user, site, 7, 0)

	// Operational sites close at 16:00, so 16:30 needs no reason.
	result, err := e.RequestCheckOut(user, clock(16, 30, 0), CheckOutRequest{Device: testDevice()})
	require.NoError(t, err)
	assert.False(t, result.Early)

	other := seedUser(t, db, site)
	checkInAt(t, e, other, site, 7, 0)
	_, err = e.RequestCheckOut(other, clock(15, 30, 0), CheckOutRequest{Device: testDevice()})
	requireRejection(t, err, KindEarlyCheckoutReasonRequired)
}

func TestCheckOut_GeofenceWhenCoordinatesReported(t *testing.T) {
	db := openTestDB(t)
	e := newTestEngine(t, db)
	office := seedLocation(t, db, "Head Office", models.LocationCategoryHeadOffice)
	user := seedUser(t, db, office)
	checkInAt(t, e, user, office, 8, 0)

	_, err := e.RequestCheckOut(user, clock(17, 30, 0), CheckOutRequest{
		LocationID: &office.ID, Coordinates: farFromOffice(), Device: testDevice(),
	})
	requireRejection(t, err, KindOutOfRange)
}

func TestCheckOut_ClampedToCheckIn(t *testing.T) {
	db := openTestDB(t)
	e := newTestEngine(t, db)
	office := seedLocation(t, db, "Head Office", models.LocationCategoryHeadOffice)
	user := seedUser(t, db, office)

	// Session opened late in the day; a skewed client clock reports an
	// earlier checkout.
	_, err := e.RequestCheckIn(user, clock(19, 0, 0), CheckInRequest{
		LocationID: &office.ID, Coordinates: nearOffice(), Proof: ProofUnverified,
		LatenessReason: "afternoon shift cover", Device: testDevice(),
	})
	require.NoError(t, err)

	result, err := e.RequestCheckOut(user, clock(18, 0, 0), CheckOutRequest{
		Reason: "clock skew", Device: testDevice(),
	})
	require.NoError(t, err)
	assert.False(t, result.Record.CheckOutAt.Before(result.Record.CheckInAt))
	assert.Equal(t, 0.0, *result.Record.WorkHours)
}

func TestCheckOut_WritesAuditEntry(t *testing.T) {
	db := openTestDB(t)
	e := newTestEngine(t, db)
	site := seedLocation(t, db, "Tarkwa Site", models.LocationCategoryOperationalSite)
	user := seedUser(t, db, site)
	checkInAt(t, e, user, site, 8, 0)

	_, err := e.RequestCheckOut(user, clock(15, 0, 0), CheckOutRequest{
		Reason: "site evacuation drill", Device: testDevice(),
	})
	require.NoError(t, err)

	var entry models.AuditLog
	require.NoError(t, db.Where("action = ?", "attendance.check_out").Take(&entry).Error)
	assert.Contains(t, entry.Detail, "earlyCheckout")
	assert.Contains(t, entry.Detail, models.LocationCategoryOperationalSite)
}
