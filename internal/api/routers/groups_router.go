package routers

import (
	"net/http"

	"splitledger/internal/api/handlers/groups"
)

func groupsRouter() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/groups/create", groups.CreateGroupHandler)

	mux.HandleFunc("/groups/mine", groups.GetMyGroupsHandler)

	mux.HandleFunc("/groups/{id}", groups.GetGroupByIDHandler)

	mux.HandleFunc("/groups/delete/{id}", groups.DeleteGroupHandler)

	mux.HandleFunc("/groups/update/{id}", groups.UpdateGroupHandler)

	mux.HandleFunc("/groups/{id}/members", groups.AddGroupMemberHandler)

	mux.HandleFunc("/groups/{id}/members/{user_id}", groups.RemoveGroupMemberHandler)

	mux.HandleFunc("/groups/{id}/balance", groups.GroupBalanceHandler)

	return mux
}
