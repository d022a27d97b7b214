package logger

// Fields shared by the data layer, so every component logs them under the same keys.

func Database(name string) Field   { return String("database", name) }
func Collection(name string) Field { return String("collection", name) }
func Entity(name string) Field     { return String("entity", name) }
func Operation(name string) Field  { return String("operation", name) }
func CommitID(id string) Field     { return String("commit_id", id) }
func Operations(n int) Field       { return Int("operations", n) }

// Actor is the user a change is attributed to. Anonymous commits log "system".
func Actor(id string) Field {
	if id == "" {
		id = "system"
	}
	return String("actor", id)
}
