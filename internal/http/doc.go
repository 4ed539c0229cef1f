// Package http provides HTTP handlers and middleware for the planner API.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a session token. Body: {"email","password"}.
//     Response: {"token","expires_at","user"} with the token also surfaced via
//     the `X-Session-Token` header and a `session_token` cookie.
//   - DELETE /sessions/current: revokes the caller's session token extracted
//     from the Authorization header or session cookie and clears the cookie.
//   - DELETE /sessions/{token}: administrator revocation of an arbitrary token.
//   - GET /me: the user record backing the authenticated session.
//   - GET /users, POST /users, GET/PUT/DELETE /users/{id}: user management
//     endpoints exchanging the `userDTO` payload defined in user_handler.go.
//     Mutations require admin privileges; GET /users/{id} is self-or-admin.
//   - GET /schedules, POST /schedules, GET/PUT/DELETE /schedules/{id}: schedule
//     aggregate endpoints exchanging the `scheduleDTO` payload defined in
//     schedule_handler.go. Responses carry the full phase and entry tree.
//   - POST /schedules/{id}/shares, DELETE /schedules/{id}/shares/{userID}:
//     grant or withdraw access for another user. Shared users can read and
//     edit; deleting and sharing the schedule stay owner-only.
//   - POST /schedules/{id}/phases, PUT/DELETE /schedules/{id}/phases/{phaseID}:
//     phase management within a schedule.
//   - POST /schedules/{id}/entries, PUT/DELETE /schedules/{id}/entries/{index}:
//     weekly entry management addressed by position within a phase. The phase
//     is named by `phase_id` in the body (or query for DELETE) and defaults to
//     the schedule's default phase.
//   - GET/POST /schedules/{id}/overrides, PUT/DELETE
//     /schedules/{id}/overrides/{overrideID}: date-specific exception records.
//   - POST /schedules/{id}/overrides/validate: dry-run conflict check that
//     reports the overlaps an override would introduce without persisting it.
//   - GET /schedules/{id}/agenda?date= or ?start=&end=: materialized calendar
//     days with conflict warnings.
//   - GET /ical/{token}: public iCalendar export addressed by the opaque feed
//     token minted with the schedule. No session required.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
