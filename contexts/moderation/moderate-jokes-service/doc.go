// Package moderatejokesservice is the joke moderation gateway: moderators log
// in, review pending jokes held by the submission store, edit them, and
// approve or reject them. Approved jokes are published to the delivery store.
//
// An approval that reaches the submission store but not the delivery store
// leaves a delivery intent behind; the reconciler worker retries it.
package moderatejokesservice
