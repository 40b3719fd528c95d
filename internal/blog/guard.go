package blog

import "github.com/2beens/blogservice/internal/auth"

// Authorize allows a mutation only when the caller is the blog author.
// Only update and delete go through here; likes and comments are open to
// any authenticated caller.
func Authorize(b *Blog, identity auth.Identity) error {
	if b == nil || identity.Username == "" || b.Author != identity.Username {
		return ErrForbidden
	}
	return nil
}
