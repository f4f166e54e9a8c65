// Package agentchat provides a library API over an .agent-chat directory.
//
// It is the integration point for programs that want to coordinate with
// agent-chat sessions without shelling out to the CLI. Every call goes back
// to disk; a Client holds paths and configuration, never cached state.
//
// # Concurrency
//
// Independent processes may use the same directory at the same time.
// Message appends never collide. Lock acquisition is check-then-write, so two
// sessions racing for the same glob can both believe they won; the lock file
// itself always ends up holding exactly one owner.
//
// # Typical use
//
//	client, err := agentchat.OpenOrInit(projectRoot)
//	name, _, err := client.Register(ctx, sessionID)
//	client.Say(ctx, name, "starting on the parser")
//	if _, err := client.Lock(ctx, "src/parser/**", model.Identity{SessionID: sessionID, Name: name}); err != nil {
//	    // errors.Is(err, errclass.ErrLockConflict)
//	}
//	msgs, _ := client.Unread(ctx, sessionID, name)
//	client.Advance(ctx, sessionID)
package agentchat
