package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testSession() *Session {
	return NewSession(1, InspectionParameters{PartID: "example_part", PSM: "6", Adaptive: true, Whitelist: DefaultWhitelist})
}

func testImage(w, h int) *Image {
	return &Image{Name: "part.png", Data: []byte("png"), Format: "png", Width: w, Height: h}
}

func TestNewSession_DefaultState(t *testing.T) {
	s := testSession()
	require.Equal(t, StateIdle, s.State())
	require.Nil(t, s.Image())
	require.Nil(t, s.LastResult())
	require.Empty(t, s.History())
}

func TestSession_BeginWithoutImage(t *testing.T) {
	s := testSession()
	req, err := s.Begin()
	require.ErrorIs(t, err, ErrNoImage)
	require.Nil(t, req)
	require.Equal(t, StateIdle, s.State())
}

func TestSession_BeginSnapshotsParameters(t *testing.T) {
	s := testSession()
	s.AcceptImage(testImage(640, 480))

	req, err := s.Begin()
	require.NoError(t, err)
	require.Equal(t, StatePending, s.State())
	require.Equal(t, "6", req.Parameters.PSM)

	require.NoError(t, s.SetPSM("11"))
	s.SetAdaptive(false)
	require.Equal(t, "6", req.Parameters.PSM)
	require.True(t, req.Parameters.Adaptive)
}

func TestSession_CompleteRecordsAndDraws(t *testing.T) {
	s := testSession()
	s.AcceptImage(testImage(640, 480))
	req, err := s.Begin()
	require.NoError(t, err)

	s.SelectPart("changed_after_submit")
	res := &InspectionResult{Verdict: "Genuine", BBox: &BBox{10, 10, 100, 50}}
	rec, err := s.Complete(req, res, time.Now())
	require.NoError(t, err)

	require.Equal(t, StateCompleted, s.State())
	require.Same(t, res, s.LastResult())
	require.Equal(t, "example_part", rec.PartID)
	require.Len(t, s.History(), 1)

	s.WithOverlay(func(o *Overlay) {
		require.Equal(t, BBox{10, 10, 100, 50}, *o.Box())
	})
}

func TestSession_ResultWithoutBoxClearsPreviousDrawing(t *testing.T) {
	s := testSession()
	s.AcceptImage(testImage(640, 480))

	req, _ := s.Begin()
	_, err := s.Complete(req, &InspectionResult{BBox: &BBox{1, 1, 5, 5}}, time.Now())
	require.NoError(t, err)

	req, _ = s.Begin()
	_, err = s.Complete(req, &InspectionResult{}, time.Now())
	require.NoError(t, err)

	s.WithOverlay(func(o *Overlay) {
		require.Nil(t, o.Box())
	})
}

func TestSession_FailKeepsResultAndHistory(t *testing.T) {
	s := testSession()
	s.AcceptImage(testImage(100, 100))

	req, _ := s.Begin()
	first := &InspectionResult{Verdict: "Suspect"}
	_, err := s.Complete(req, first, time.Now())
	require.NoError(t, err)

	req, _ = s.Begin()
	require.NoError(t, s.Fail(req))
	require.Equal(t, StateFailed, s.State())
	require.Same(t, first, s.LastResult())
	require.Len(t, s.History(), 1)
}

func TestSession_StaleResponseDiscarded(t *testing.T) {
	s := testSession()
	s.AcceptImage(testImage(100, 100))

	older, _ := s.Begin()
	newer, _ := s.Begin()

	_, err := s.Complete(newer, &InspectionResult{Verdict: "Genuine"}, time.Now())
	require.NoError(t, err)

	_, err = s.Complete(older, &InspectionResult{Verdict: "Reject"}, time.Now())
	require.ErrorIs(t, err, ErrStaleResponse)
	require.ErrorIs(t, s.Fail(older), ErrStaleResponse)

	require.Equal(t, "Genuine", s.LastResult().Verdict)
	require.Len(t, s.History(), 1)
}

func TestSession_ClearInvalidatesInFlight(t *testing.T) {
	s := testSession()
	s.AcceptImage(testImage(100, 100))
	req, _ := s.Begin()

	s.Clear()
	require.Equal(t, StateIdle, s.State())
	require.Nil(t, s.Image())

	_, err := s.Complete(req, &InspectionResult{}, time.Now())
	require.ErrorIs(t, err, ErrStaleResponse)
	require.Empty(t, s.History())
}

func TestSession_NewImageInvalidatesInFlight(t *testing.T) {
	s := testSession()
	s.AcceptImage(testImage(100, 100))
	req, err := s.Begin()
	require.NoError(t, err)

	s.AcceptImage(testImage(800, 600))
	require.Equal(t, StateIdle, s.State())

	box := BBox{10, 10, 50, 50}
	_, err = s.Complete(req, &InspectionResult{Verdict: "Reject", BBox: &box}, time.Now())
	require.ErrorIs(t, err, ErrStaleResponse)
	require.Nil(t, s.LastResult())
	require.Empty(t, s.History())
	s.WithOverlay(func(o *Overlay) {
		require.Nil(t, o.Box())
	})

	next, err := s.Begin()
	require.NoError(t, err)
	require.Equal(t, 800, next.Image.Width)
	_, err = s.Complete(next, &InspectionResult{Verdict: "Genuine"}, time.Now())
	require.NoError(t, err)
	require.Len(t, s.History(), 1)
}

func TestSession_NewImageReplacesPrevious(t *testing.T) {
	s := testSession()
	s.AcceptImage(testImage(100, 100))
	s.AcceptImage(testImage(800, 600))

	require.Equal(t, 800, s.Image().Width)
	s.WithOverlay(func(o *Overlay) {
		w, h := o.Size()
		require.Equal(t, 800, w)
		require.Equal(t, 600, h)
	})
}

func TestSession_DropTarget(t *testing.T) {
	s := testSession()
	s.DragEnter()
	require.True(t, s.DropActive())
	s.Drop()
	require.False(t, s.DropActive())

	s.DragEnter()
	s.DragLeave()
	require.False(t, s.DropActive())
}

func TestSession_SetPSMRejectsUnknown(t *testing.T) {
	s := testSession()
	require.ErrorIs(t, s.SetPSM("99"), ErrInvalidInput)
	require.Equal(t, "6", s.Parameters().PSM)
}
