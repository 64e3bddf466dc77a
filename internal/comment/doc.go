// Package comment implements the comments API: comments on posts, one level
// of replies, and likes.
//
// Store has two implementations. MemoryStore backs tests and local runs;
// MongoStore keeps documents in the "comments" collection with object id hex
// strings as ids. Handler exposes the routes:
//
//	POST   /api/comments/{postId}       create (optionally a reply via parentComment)
//	PUT    /api/comments/{id}           update content, owner or admin
//	DELETE /api/comments/{id}           delete with direct replies, owner or admin
//	PUT    /api/comments/like/{id}      like
//	PUT    /api/comments/unlike/{id}    unlike
//	GET    /api/comments/{id}/replies   public, paginated with ?page=&limit=
//
// Content is required and limited to 500 characters.
package comment
