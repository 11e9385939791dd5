// Package calendar proxies read operations to the Google Calendar API for
// the holder of an OAuth access token.
//
// A Controller keeps the API service built for the last access token it
// saw and reuses it while calls arrive with the same token. Events are
// returned wrapped in Event, which resolves start and end times against
// the event's own time zone or the configured LOCAL_ZONE.
//
// Example usage:
//
//	ctrl := calendar.NewController(cfg)
//	events, err := ctrl.GetEvents(ctx, accessToken, refreshToken, "primary",
//	    googleapi.QueryParameter("timeMin", time.Now().Format(time.RFC3339)),
//	    googleapi.QueryParameter("singleEvents", "true"))
//	if err != nil {
//	    return err
//	}
//	for _, ev := range events {
//	    start, err := ev.StartTime(nil)
//	    ...
//	}
package calendar
