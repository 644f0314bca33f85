package lightgbm_test

// twoTreeModel is a minimal LightGBM text dump:
//
//	tree 0: x0 <= 0.5 -> 1.0 ; else x1 <= 2.0 -> 2.0 ; else 3.0 (missing x0 goes left)
//	tree 1: constant 0.5
const twoTreeModel = `tree
version=v3
num_class=1
num_tree_per_iteration=1
label_index=0
max_feature_idx=1
objective=regression
feature_names=Rainfall_Temp Area_log
feature_infos=[0:1] [0:10]
tree_sizes=300 100

Tree=0
num_leaves=3
num_cat=0
split_feature=0 1
split_gain=10 5
threshold=0.5 2.0000000000000004
decision_type=2 0
left_child=-1 -2
right_child=1 -3
leaf_value=1 2 3
leaf_weight=10 5 5
leaf_count=10 5 5
internal_value=0 0
internal_weight=20 10
internal_count=20 10
is_linear=0
shrinkage=1


Tree=1
num_leaves=1
num_cat=0
split_feature=
split_gain=
threshold=
decision_type=
left_child=
right_child=
leaf_value=0.5
leaf_weight=
leaf_count=
internal_value=
internal_weight=
internal_count=
is_linear=0
shrinkage=1


end of trees

feature_importances:
Rainfall_Temp=1
Area_log=1

parameters:
[boosting: gbdt]
[objective: regression]
end of parameters

pandas_categorical:null
`
