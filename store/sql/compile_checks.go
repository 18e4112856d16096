package sqlstore

import "github.com/goliatone/go-merchant-auth/core"

var (
	_ core.CredentialStore        = (*CredentialStore)(nil)
	_ core.StateStore             = (*StateStore)(nil)
	_ core.AuditStore             = (*AuditStore)(nil)
	_ core.StoreProvider          = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
)
