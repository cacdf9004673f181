// Package schedule invokes a handler on a recurring schedule.
//
// This package includes:
//   - Schedule interface for defining invocation schedules
//   - Every() for fixed-interval schedules
//   - Daily() and Weekly() for wall-clock schedules in UTC
//   - Cron() and ParseCron() for cron expressions, including descriptors
//     such as "@hourly" and "@every 5m"
//   - Runner, which fires a ScheduledEvent at the handler on every tick
package schedule
